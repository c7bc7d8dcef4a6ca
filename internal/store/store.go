// Package store provides focused, single-concern data access stores
// for the GhorBari marketplace.
//
// Each store owns one domain (properties, applications, audit) and
// embeds shared helpers (Pool, logger) via the Base struct. Stores
// never import each other; shared logic lives in this file or in
// dedicated helper files (scan.go).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notify sends a pg_notify on the gb_changes channel (best-effort, post-commit).
func (b *Base) notify(table, op, entityID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, _ := json.Marshal(map[string]any{ //nolint:errcheck // static keys, cannot fail.
		"table": table,
		"op":    op,
		"id":    entityID,
	})
	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify('gb_changes', $1)", string(payload)); err != nil {
		b.Log.WithError(err).Warn("failed to send " + op + " " + table + " notification")
	}
}

// isDuplicateKey reports whether err is a Postgres unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
