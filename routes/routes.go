package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/psops/provisioning-dashboard/app"
	"github.com/psops/provisioning-dashboard/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Actor)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Provisioning records and their validation runs
		r.Route("/records", func(r chi.Router) {
			r.Get("/", deps.RecordHandler.HandleListRecords)
			r.Post("/", deps.RecordHandler.HandleCreateRecord)
			r.Post("/validate", deps.RecordHandler.HandleValidateAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.RecordHandler.HandleGetRecord)
				r.Post("/validate", deps.RecordHandler.HandleValidateRecord)
				r.Get("/validation", deps.RecordHandler.HandleLatestValidation)
				r.Get("/validation/history", deps.RecordHandler.HandleValidationHistory)
			})
		})

		// Validation rule settings
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", deps.RulesHandler.HandleListRules)
			r.Patch("/{ruleID}", deps.RulesHandler.HandleUpdateRule)
		})

		// Audit trail
		r.Get("/audit", deps.AuditHandler.HandleListAuditLogs)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
