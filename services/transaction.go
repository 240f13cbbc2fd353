package services

import (
	"context"

	"github.com/psops/provisioning-dashboard/repositories"
)

// WithTransaction runs fn inside a single database transaction. The
// transaction travels on the context fn receives, so every repository call
// made with that context joins it; an error from fn rolls the whole
// transaction back.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) error) error {
	return txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return fn(txCtx)
	})
}

// WithTransactionResult is WithTransaction for operations that produce a
// value. The zero value is returned when the transaction rolls back.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		var fnErr error
		result, fnErr = fn(txCtx)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
