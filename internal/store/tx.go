package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an open write transaction handed to a Transaction body.
// It must not be used after the body returns.
type Tx struct {
	tx *sql.Tx
	id string
}

// ID returns the id assigned to this transaction scope.
func (t *Tx) ID() string {
	return t.id
}

// Transaction runs fn inside a write transaction.
//
// The store's mutex is held from before BEGIN until after COMMIT or
// ROLLBACK, so concurrent callers queue here rather than interleaving
// transactions. Lock acquisition does not observe ctx.
//
// If fn returns nil the transaction is committed. If fn returns an error the
// transaction is rolled back and that error is returned as is. If fn panics
// the transaction is rolled back and the panic continues. The mutex is
// released on every path.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	waitStart := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.observeLockWait(time.Since(waitStart))

	id := s.txIDs.Generate()
	log := s.logger.With("tx_id", id)
	start := time.Now()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	log.DebugContext(ctx, "transaction begin")

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.WarnContext(ctx, "transaction rollback failed", "error", rbErr)
		}
		s.metrics.observeTransaction(outcomeRollback, time.Since(start))
		log.DebugContext(ctx, "transaction rolled back")
	}()

	if err := fn(&Tx{tx: sqlTx, id: id}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	s.metrics.observeTransaction(outcomeCommit, time.Since(start))
	log.DebugContext(ctx, "transaction committed")
	return nil
}
