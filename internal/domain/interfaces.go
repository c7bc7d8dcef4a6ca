// Package domain defines the canonical service interfaces shared across API
// layers (REST handlers, client). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/ghorbari/ghorbari/internal/models"
)

// PropertyService defines all property listing operations.
type PropertyService interface {
	ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, bool, error)
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	CreateProperty(ctx context.Context, owner models.Principal, req models.CreatePropertyRequest) (*models.Property, error)
	UpdateProperty(ctx context.Context, actor models.Principal, id string, req models.UpdatePropertyRequest) (*models.Property, error)
	ModerateProperty(ctx context.Context, actor models.Principal, id string, req models.ModeratePropertyRequest) (*models.Property, error)
	SetHidden(ctx context.Context, actor models.Principal, id string, hidden bool) (*models.Property, error)
	RemoveProperty(ctx context.Context, actor models.Principal, id string) (*models.Property, error)
	ReopenProperty(ctx context.Context, actor models.Principal, id string) (*models.Property, error)
}

// ApplicationService defines all negotiation operations.
type ApplicationService interface {
	CreateApplication(ctx context.Context, seeker models.Principal, req models.CreateApplicationRequest) (*models.Application, error)
	GetApplication(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	ListForProperty(ctx context.Context, actor models.Principal, propertyID string) ([]models.Application, error)
	ListSubmitted(ctx context.Context, actor models.Principal) ([]models.Application, error)
	ListReceived(ctx context.Context, actor models.Principal) ([]models.Application, error)
	OwnerAction(ctx context.Context, actor models.Principal, id string, req models.OwnerActionRequest) (*models.Application, error)
	Withdraw(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	Revise(ctx context.Context, actor models.Principal, id string, req models.ReviseRequest) (*models.Application, error)
	AcceptCounter(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	UpdateDealStatus(ctx context.Context, actor models.Principal, propertyID string, req models.DealStatusRequest) (*models.Application, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services and handlers for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, action, entityType, entityID, actor string, detail map[string]any) error
}
