package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockPropertyStore backs PropertyService tests with a single in-memory
// property.
type mockPropertyStore struct {
	property  *models.Property
	createErr error
	updateErr error

	created   *models.Property
	updatedID string
	deletedID string
}

func (m *mockPropertyStore) CreateProperty(_ context.Context, p *models.Property) (*models.Property, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = p
	return p, nil
}

func (m *mockPropertyStore) GetProperty(_ context.Context, id string) (*models.Property, error) {
	if m.property == nil || m.property.ID != id {
		return nil, models.ErrPropertyNotFound
	}
	cp := m.property.Clone()
	return &cp, nil
}

func (m *mockPropertyStore) ListProperties(_ context.Context, _ models.PropertyFilter) ([]models.Property, bool, error) {
	if m.property == nil {
		return nil, false, nil
	}
	return []models.Property{m.property.Clone()}, false, nil
}

func (m *mockPropertyStore) UpdateProperty(_ context.Context, id string, _ models.UpdatePropertyRequest) (*models.Property, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updatedID = id
	cp := m.property.Clone()
	return &cp, nil
}

func (m *mockPropertyStore) UpdatePropertyStatus(
	_ context.Context, id string, mutate func(p *models.Property) (*models.Property, error),
) (*models.Property, error) {
	if m.property == nil || m.property.ID != id {
		return nil, models.ErrPropertyNotFound
	}

	cp := m.property.Clone()

	updated, err := mutate(&cp)
	if err != nil {
		return nil, err
	}

	m.property = updated
	return updated, nil
}

func (m *mockPropertyStore) DeleteProperty(_ context.Context, id string) error {
	m.deletedID = id
	return nil
}

// mockApplicationStore runs transitions against in-memory documents the
// same way the real store does: lock-free, but with the same
// snapshot-decide-persist shape.
type mockApplicationStore struct {
	property     *models.Property
	applications []models.Application
	createErr    error
}

func (m *mockApplicationStore) CreateApplication(
	_ context.Context, propertyID string,
	seed func(prop models.Property, existing []models.Application) (*models.Application, error),
) (*models.Application, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.property == nil || m.property.ID != propertyID {
		return nil, models.ErrPropertyNotFound
	}

	app, err := seed(m.property.Clone(), m.applications)
	if err != nil {
		return nil, err
	}

	m.applications = append(m.applications, app.Clone())
	return app, nil
}

func (m *mockApplicationStore) GetApplication(_ context.Context, id string) (*models.Application, error) {
	for i := range m.applications {
		if m.applications[i].ID == id {
			cp := m.applications[i].Clone()
			return &cp, nil
		}
	}
	return nil, models.ErrApplicationNotFound
}

func (m *mockApplicationStore) ListByProperty(_ context.Context, propertyID string) ([]models.Application, error) {
	var out []models.Application
	for i := range m.applications {
		if m.applications[i].PropertyID == propertyID {
			out = append(out, m.applications[i].Clone())
		}
	}
	return out, nil
}

func (m *mockApplicationStore) ListBySeeker(_ context.Context, email string) ([]models.Application, error) {
	var out []models.Application
	for i := range m.applications {
		if m.applications[i].Seeker.Email == email {
			out = append(out, m.applications[i].Clone())
		}
	}
	return out, nil
}

func (m *mockApplicationStore) ListByOwner(_ context.Context, email string) ([]models.Application, error) {
	var out []models.Application
	for i := range m.applications {
		if m.applications[i].Owner.Email == email {
			out = append(out, m.applications[i].Clone())
		}
	}
	return out, nil
}

func (m *mockApplicationStore) Transition(
	ctx context.Context, applicationID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	for i := range m.applications {
		if m.applications[i].ID == applicationID {
			return m.transition(ctx, m.applications[i].PropertyID, applicationID, decide)
		}
	}
	return nil, models.ErrApplicationNotFound
}

func (m *mockApplicationStore) TransitionByProperty(
	ctx context.Context, propertyID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	if m.property == nil || m.property.ID != propertyID {
		return nil, models.ErrPropertyNotFound
	}
	if m.property.ActiveApplicationID == "" {
		return nil, models.ErrNoActiveDeal
	}
	return m.transition(ctx, propertyID, m.property.ActiveApplicationID, decide)
}

func (m *mockApplicationStore) transition(
	_ context.Context, propertyID, applicationID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	snap := negotiation.Snapshot{Property: m.property.Clone()}
	found := false

	for i := range m.applications {
		if m.applications[i].PropertyID != propertyID {
			continue
		}
		if m.applications[i].ID == applicationID {
			snap.Application = m.applications[i].Clone()
			found = true
			continue
		}
		snap.Siblings = append(snap.Siblings, m.applications[i].Clone())
	}

	if !found {
		return nil, models.ErrApplicationNotFound
	}

	d, err := decide(snap)
	if err != nil {
		return nil, err
	}

	m.persist(&d.Application)
	for i := range d.RejectedSiblings {
		m.persist(&d.RejectedSiblings[i])
	}
	if d.Property != nil {
		cp := d.Property.Clone()
		m.property = &cp
	}

	return d, nil
}

func (m *mockApplicationStore) persist(a *models.Application) {
	for i := range m.applications {
		if m.applications[i].ID == a.ID {
			m.applications[i] = a.Clone()
			return
		}
	}
}

// mockAuditor records audit calls for assertions.
type mockAuditor struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (m *mockAuditor) RecordAudit(_ context.Context, action, _, _, _ string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, action)
	return m.err
}

func (m *mockAuditor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockEnqueuer captures enqueued audit jobs synchronously.
type mockEnqueuer struct {
	jobs []*AuditJob
}

func (m *mockEnqueuer) Enqueue(job *AuditJob) {
	m.jobs = append(m.jobs, job)
}

func (m *mockEnqueuer) actions() []string {
	out := make([]string, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Action
	}
	return out
}

// mockNotifier captures pushed events.
type mockNotifier struct {
	events []notifiedEvent
}

type notifiedEvent struct {
	eventType string
	emails    []string
	data      json.RawMessage
}

func (m *mockNotifier) NotifyUsers(eventType string, emails []string, data json.RawMessage) {
	m.events = append(m.events, notifiedEvent{eventType: eventType, emails: emails, data: data})
}
