package api_test

import (
	"context"
	"errors"

	"github.com/ghorbari/ghorbari/internal/models"
)

var errBoom = errors.New("boom")

// mockPropertyService implements api.PropertyService with function fields.
type mockPropertyService struct {
	listFn     func(ctx context.Context, f models.PropertyFilter) ([]models.Property, bool, error)
	getFn      func(ctx context.Context, id string) (*models.Property, error)
	createFn   func(ctx context.Context, owner models.Principal, req models.CreatePropertyRequest) (*models.Property, error)
	updateFn   func(ctx context.Context, actor models.Principal, id string, req models.UpdatePropertyRequest) (*models.Property, error)
	moderateFn func(ctx context.Context, actor models.Principal, id string, req models.ModeratePropertyRequest) (*models.Property, error)
	hideFn     func(ctx context.Context, actor models.Principal, id string, hidden bool) (*models.Property, error)
	removeFn   func(ctx context.Context, actor models.Principal, id string) (*models.Property, error)
	reopenFn   func(ctx context.Context, actor models.Principal, id string) (*models.Property, error)
}

func (m *mockPropertyService) ListProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, bool, error) {
	if m.listFn == nil {
		return nil, false, nil
	}
	return m.listFn(ctx, f)
}

func (m *mockPropertyService) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if m.getFn == nil {
		return nil, models.ErrPropertyNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockPropertyService) CreateProperty(ctx context.Context, owner models.Principal, req models.CreatePropertyRequest) (*models.Property, error) {
	return m.createFn(ctx, owner, req)
}

func (m *mockPropertyService) UpdateProperty(ctx context.Context, actor models.Principal, id string, req models.UpdatePropertyRequest) (*models.Property, error) {
	return m.updateFn(ctx, actor, id, req)
}

func (m *mockPropertyService) ModerateProperty(ctx context.Context, actor models.Principal, id string, req models.ModeratePropertyRequest) (*models.Property, error) {
	return m.moderateFn(ctx, actor, id, req)
}

func (m *mockPropertyService) SetHidden(ctx context.Context, actor models.Principal, id string, hidden bool) (*models.Property, error) {
	return m.hideFn(ctx, actor, id, hidden)
}

func (m *mockPropertyService) RemoveProperty(ctx context.Context, actor models.Principal, id string) (*models.Property, error) {
	return m.removeFn(ctx, actor, id)
}

func (m *mockPropertyService) ReopenProperty(ctx context.Context, actor models.Principal, id string) (*models.Property, error) {
	return m.reopenFn(ctx, actor, id)
}

// mockApplicationService implements api.ApplicationService with function fields.
type mockApplicationService struct {
	createFn        func(ctx context.Context, seeker models.Principal, req models.CreateApplicationRequest) (*models.Application, error)
	getFn           func(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	listForPropFn   func(ctx context.Context, actor models.Principal, propertyID string) ([]models.Application, error)
	listSubmittedFn func(ctx context.Context, actor models.Principal) ([]models.Application, error)
	listReceivedFn  func(ctx context.Context, actor models.Principal) ([]models.Application, error)
	ownerActionFn   func(ctx context.Context, actor models.Principal, id string, req models.OwnerActionRequest) (*models.Application, error)
	withdrawFn      func(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	reviseFn        func(ctx context.Context, actor models.Principal, id string, req models.ReviseRequest) (*models.Application, error)
	acceptCounterFn func(ctx context.Context, actor models.Principal, id string) (*models.Application, error)
	dealStatusFn    func(ctx context.Context, actor models.Principal, propertyID string, req models.DealStatusRequest) (*models.Application, error)
}

func (m *mockApplicationService) CreateApplication(ctx context.Context, seeker models.Principal, req models.CreateApplicationRequest) (*models.Application, error) {
	return m.createFn(ctx, seeker, req)
}

func (m *mockApplicationService) GetApplication(ctx context.Context, actor models.Principal, id string) (*models.Application, error) {
	return m.getFn(ctx, actor, id)
}

func (m *mockApplicationService) ListForProperty(ctx context.Context, actor models.Principal, propertyID string) ([]models.Application, error) {
	return m.listForPropFn(ctx, actor, propertyID)
}

func (m *mockApplicationService) ListSubmitted(ctx context.Context, actor models.Principal) ([]models.Application, error) {
	return m.listSubmittedFn(ctx, actor)
}

func (m *mockApplicationService) ListReceived(ctx context.Context, actor models.Principal) ([]models.Application, error) {
	return m.listReceivedFn(ctx, actor)
}

func (m *mockApplicationService) OwnerAction(ctx context.Context, actor models.Principal, id string, req models.OwnerActionRequest) (*models.Application, error) {
	return m.ownerActionFn(ctx, actor, id, req)
}

func (m *mockApplicationService) Withdraw(ctx context.Context, actor models.Principal, id string) (*models.Application, error) {
	return m.withdrawFn(ctx, actor, id)
}

func (m *mockApplicationService) Revise(ctx context.Context, actor models.Principal, id string, req models.ReviseRequest) (*models.Application, error) {
	return m.reviseFn(ctx, actor, id, req)
}

func (m *mockApplicationService) AcceptCounter(ctx context.Context, actor models.Principal, id string) (*models.Application, error) {
	return m.acceptCounterFn(ctx, actor, id)
}

func (m *mockApplicationService) UpdateDealStatus(ctx context.Context, actor models.Principal, propertyID string, req models.DealStatusRequest) (*models.Application, error) {
	return m.dealStatusFn(ctx, actor, propertyID, req)
}

// mockAuditService implements api.AuditService with function fields.
type mockAuditService struct {
	queryFn func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockAuditService) RecordAudit(context.Context, string, string, string, string, map[string]any) error {
	return nil
}

func (m *mockAuditService) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockAuditService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}
