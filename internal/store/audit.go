package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/models"
)

// AuditStore owns the audit_log table: append-only writes from the audit
// worker, filtered reads for the admin API, and the retention purge.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// RecordAudit appends one entry. A nil detail map stores SQL NULL.
func (s *AuditStore) RecordAudit(
	ctx context.Context,
	action, entityType, entityID, actor string,
	detail map[string]any,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detailJSON []byte

	if detail != nil {
		var err error

		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO audit_log (action, entity_type, entity_id, actor, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		action, entityType, entityID, actor, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// buildAuditFilter builds WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.EntityType != "" {
		conditions = append(conditions, "entity_type = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityType)
		argIdx++
	}
	if opts.EntityID != "" {
		conditions = append(conditions, "entity_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityID)
		argIdx++
	}
	if opts.Action != "" {
		conditions = append(conditions, "action = $"+strconv.Itoa(argIdx))
		args = append(args, opts.Action)
		argIdx++
	}
	if opts.Since != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// QueryAudit returns audit entries matching the given filters.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	where, args, argIdx := buildAuditFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT id, action, entity_type, entity_id, actor, detail, created_at FROM audit_log %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, opts.Offset)

	entries, err := scanAuditRows(ctx, tx, query, args, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanAuditRows runs query inside tx and scans the full result set.
func scanAuditRows(ctx context.Context, tx pgx.Tx, query string, args []any, log *logrus.Logger) ([]models.AuditEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry

	for rows.Next() {
		e, err := scanAuditEntry(rows.Scan, log)
		if err != nil {
			return nil, err
		}

		entries = append(entries, *e)
	}

	return entries, nil
}

// scanAuditEntry scans one row. A detail blob that fails to decode is
// logged and dropped rather than failing the whole query; the entry itself
// is still returned.
func scanAuditEntry(scan scanFunc, log *logrus.Logger) (*models.AuditEntry, error) {
	var (
		e          models.AuditEntry
		detailJSON []byte
		actor      *string
	)

	if err := scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &actor, &detailJSON, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning audit entry: %w", err)
	}

	if actor != nil {
		e.Actor = *actor
	}

	if detailJSON != nil {
		if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
			log.WithError(err).Warn("failed to unmarshal audit detail")
		}
	}

	return &e, nil
}

// purgeBatchSize bounds each delete so the purge never holds a long lock
// on audit_log while the API is writing to it.
const purgeBatchSize = 5000

// PurgeOldEntries deletes entries older than retentionDays, batch by
// batch, and returns how many rows went away.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeOldEntriesBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeOldEntriesBatch(ctx context.Context, retentionDays int) (int, error) {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM audit_log WHERE ctid IN (
			SELECT ctid FROM audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
