package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// QuerierAdapter routes queries through the active transaction when one is
// in context, falling back to the pool. Lets construction-time consumers
// (the numerator) participate in the caller's transaction.
type QuerierAdapter struct {
	txManager *TxManager
}

// NewQuerierAdapter creates a context-routed querier.
func NewQuerierAdapter(txManager *TxManager) *QuerierAdapter {
	return &QuerierAdapter{txManager: txManager}
}

func (a *QuerierAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
