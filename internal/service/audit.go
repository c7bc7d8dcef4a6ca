package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/domain"
	"github.com/ghorbari/ghorbari/internal/models"
)

// AuditQueryStore is what AuditService needs from the store layer. The
// method set matches domain.AuditService exactly, so the alias avoids a
// duplicate interface.
type AuditQueryStore = domain.AuditService

var _ domain.AuditService = (*AuditService)(nil)

// AuditService fronts the audit store for the admin API and the retention
// sweep. Reads pass straight through; the purge logs what it removed.
type AuditService struct {
	store AuditQueryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditQueryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts one audit entry.
func (s *AuditService) RecordAudit(
	ctx context.Context, action, entityType, entityID, actor string, detail map[string]any,
) error {
	return s.store.RecordAudit(ctx, action, entityType, entityID, actor, detail)
}

// QueryAudit returns entries matching opts, newest first.
func (s *AuditService) QueryAudit(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	return s.store.QueryAudit(ctx, opts)
}

// PurgeOldEntries removes entries older than retentionDays.
func (s *AuditService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeOldEntries(ctx, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}
