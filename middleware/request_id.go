package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader is the header used to propagate request ids across services
const requestIDHeader = "X-Request-ID"

// actorHeader carries the identity of the user driving the dashboard session
const actorHeader = "X-Actor"

// RequestID assigns each request an id, honoring one supplied by the caller.
// The id is stored in the context and echoed back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor lifts the X-Actor header into the context so handlers can attribute
// audit entries without re-reading headers.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(actorHeader)
		if actor == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
