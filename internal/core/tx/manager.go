// Package tx provides transaction management abstractions so storage code can
// compose several statements into one atomic unit without depending on pgx.
package tx

import (
	"context"
)

// Manager runs fn inside a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise committed.
// Nested calls reuse the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
