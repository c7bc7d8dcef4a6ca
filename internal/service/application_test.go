package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

func seededApplication(id string, status models.ApplicationStatus, price float64) models.Application {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return models.Application{
		ID:                   id,
		PropertyID:           "prop-1",
		Owner:                models.UserRef{Email: "owner@example.com"},
		Seeker:               models.UserRef{Email: "seeker@example.com"},
		Status:               status,
		OriginalListingPrice: 25000,
		ProposedPrice:        price,
		PriceHistory: models.PriceHistory{}.Append(
			price, models.PartySeeker, "seeker@example.com", "Initial offer", now),
		StatusHistory: []models.StatusChange{{
			Status: models.ApplicationPending, ChangedBy: models.PartySeeker, Timestamp: now,
		}},
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActionAt: now,
		LastActionBy: models.PartySeeker,
	}
}

func newAppService(store *mockApplicationStore) (*ApplicationService, *mockEnqueuer, *mockNotifier) {
	audit := &mockEnqueuer{}
	notifier := &mockNotifier{}
	return NewApplicationService(store, nil, audit, notifier, testLogger()), audit, notifier
}

func TestCreateApplication_SeedsAndNotifies(t *testing.T) {
	store := &mockApplicationStore{property: testListing(models.PropertyActive, models.ListingRent)}
	svc, audit, notifier := newAppService(store)

	created, err := svc.CreateApplication(context.Background(), seekerPrincipal(), models.CreateApplicationRequest{
		ID:            "app-1",
		PropertyID:    "prop-1",
		ProposedPrice: 22000,
		Message:       "Available from July",
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}

	if created.Status != models.ApplicationPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if len(created.PriceHistory) != 1 || created.PriceHistory[0].Price != 22000 {
		t.Errorf("price history = %+v, want single 22000 entry", created.PriceHistory)
	}
	if got := audit.actions(); len(got) != 1 || got[0] != "application.create" {
		t.Errorf("audit actions = %v, want [application.create]", got)
	}
	if len(notifier.events) != 1 || notifier.events[0].eventType != "application.created" {
		t.Fatalf("events = %+v, want one application.created", notifier.events)
	}
	if got := notifier.events[0].emails; len(got) != 2 {
		t.Errorf("event targets = %v, want both parties", got)
	}
}

func TestCreateApplication_RejectedByGuards(t *testing.T) {
	store := &mockApplicationStore{property: testListing(models.PropertyPending, models.ListingRent)}
	svc, audit, notifier := newAppService(store)

	_, err := svc.CreateApplication(context.Background(), seekerPrincipal(), models.CreateApplicationRequest{
		ID:            "app-1",
		PropertyID:    "prop-1",
		ProposedPrice: 22000,
	})
	if !errors.Is(err, negotiation.ErrGuardViolation) {
		t.Fatalf("error = %v, want guard violation", err)
	}

	if len(audit.jobs) != 0 || len(notifier.events) != 0 {
		t.Errorf("side effects ran on failed create: audit=%d events=%d", len(audit.jobs), len(notifier.events))
	}
}

func TestGetApplication_AccessControl(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, _ := newAppService(store)

	tests := []struct {
		name    string
		actor   models.Principal
		wantErr error
	}{
		{"seeker reads own", seekerPrincipal(), nil},
		{"owner reads", ownerPrincipal(), nil},
		{"admin reads", adminPrincipal(), nil},
		{"stranger forbidden", models.Principal{Email: "other@example.com", Role: models.RoleSeeker}, models.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetApplication(context.Background(), tt.actor, "app-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetApplication error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListForProperty_OwnerOnly(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, _ := newAppService(store)

	if _, err := svc.ListForProperty(context.Background(), ownerPrincipal(), "prop-1"); err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if _, err := svc.ListForProperty(context.Background(), adminPrincipal(), "prop-1"); err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if _, err := svc.ListForProperty(context.Background(), seekerPrincipal(), "prop-1"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("seeker list error = %v, want forbidden", err)
	}
}

func TestOwnerAction_Accept(t *testing.T) {
	store := &mockApplicationStore{
		property: testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{
			seededApplication("app-1", models.ApplicationPending, 22000),
			seededApplication("app-2", models.ApplicationPending, 21000),
		},
	}
	store.applications[1].Seeker.Email = "rival@example.com"
	svc, audit, notifier := newAppService(store)

	updated, err := svc.OwnerAction(context.Background(), ownerPrincipal(), "app-1",
		models.OwnerActionRequest{Status: models.ApplicationDealInProgress})
	if err != nil {
		t.Fatalf("OwnerAction accept: %v", err)
	}

	if updated.Status != models.ApplicationDealInProgress {
		t.Errorf("status = %q, want deal-in-progress", updated.Status)
	}
	if updated.FinalPrice == nil || *updated.FinalPrice != 22000 {
		t.Errorf("final price = %v, want 22000", updated.FinalPrice)
	}
	if store.property.Status != models.PropertyDealInProgress {
		t.Errorf("property status = %q, want deal-in-progress", store.property.Status)
	}
	if store.property.ActiveApplicationID != "app-1" {
		t.Errorf("active application = %q, want app-1", store.property.ActiveApplicationID)
	}

	sibling, _ := store.GetApplication(context.Background(), "app-2")
	if sibling.Status != models.ApplicationRejected {
		t.Errorf("sibling status = %q, want rejected", sibling.Status)
	}

	// One event for the accepted application, one per rejected sibling.
	if len(notifier.events) != 2 {
		t.Errorf("events = %d, want 2", len(notifier.events))
	}
	if got := audit.actions(); len(got) != 1 || got[0] != "application.accept" {
		t.Errorf("audit actions = %v, want [application.accept]", got)
	}
}

func TestOwnerAction_InvalidStatus(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, _ := newAppService(store)

	_, err := svc.OwnerAction(context.Background(), ownerPrincipal(), "app-1",
		models.OwnerActionRequest{Status: models.ApplicationCompleted})
	if !errors.Is(err, models.ErrInvalidOwnerAction) {
		t.Fatalf("error = %v, want %v", err, models.ErrInvalidOwnerAction)
	}
}

func TestOwnerAction_SeekerCannotAccept(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, _ := newAppService(store)

	_, err := svc.OwnerAction(context.Background(), seekerPrincipal(), "app-1",
		models.OwnerActionRequest{Status: models.ApplicationDealInProgress})
	if !errors.Is(err, negotiation.ErrUnauthorized) {
		t.Fatalf("error = %v, want unauthorized", err)
	}
}

func TestNegotiationRoundTrip(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, notifier := newAppService(store)
	ctx := context.Background()

	// Owner counters at 24000.
	countered, err := svc.OwnerAction(ctx, ownerPrincipal(), "app-1",
		models.OwnerActionRequest{Status: models.ApplicationCounter, ProposedPrice: 24000, Message: "Can do 24k"})
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if countered.Status != models.ApplicationCounter || countered.ProposedPrice != 24000 {
		t.Fatalf("after counter: status=%q price=%v", countered.Status, countered.ProposedPrice)
	}

	// Seeker revises at 23000.
	revised, err := svc.Revise(ctx, seekerPrincipal(), "app-1", models.ReviseRequest{ProposedPrice: 23000})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revised.Status != models.ApplicationPending || revised.ProposedPrice != 23000 {
		t.Fatalf("after revise: status=%q price=%v", revised.Status, revised.ProposedPrice)
	}

	// Owner counters again, seeker accepts the counter.
	if _, err := svc.OwnerAction(ctx, ownerPrincipal(), "app-1",
		models.OwnerActionRequest{Status: models.ApplicationCounter, ProposedPrice: 23500}); err != nil {
		t.Fatalf("second counter: %v", err)
	}

	accepted, err := svc.AcceptCounter(ctx, seekerPrincipal(), "app-1")
	if err != nil {
		t.Fatalf("accept counter: %v", err)
	}
	if accepted.Status != models.ApplicationDealInProgress {
		t.Fatalf("after accept-counter: status=%q", accepted.Status)
	}
	if accepted.FinalPrice == nil || *accepted.FinalPrice != 23500 {
		t.Fatalf("final price = %v, want 23500", accepted.FinalPrice)
	}

	// Owner completes the deal through the property endpoint.
	completed, err := svc.UpdateDealStatus(ctx, ownerPrincipal(), "prop-1",
		models.DealStatusRequest{DealStatus: models.ApplicationCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.ApplicationCompleted {
		t.Fatalf("after complete: status=%q", completed.Status)
	}
	if store.property.Status != models.PropertyRented {
		t.Fatalf("property status = %q, want rented", store.property.Status)
	}

	var dealEvents int
	for _, e := range notifier.events {
		if e.eventType == "deal.updated" {
			dealEvents++
		}
	}
	if dealEvents != 1 {
		t.Errorf("deal.updated events = %d, want 1", dealEvents)
	}
}

func TestWithdraw_OnlySeeker(t *testing.T) {
	store := &mockApplicationStore{
		property:     testListing(models.PropertyActive, models.ListingRent),
		applications: []models.Application{seededApplication("app-1", models.ApplicationPending, 22000)},
	}
	svc, _, _ := newAppService(store)

	if _, err := svc.Withdraw(context.Background(), ownerPrincipal(), "app-1"); !errors.Is(err, negotiation.ErrUnauthorized) {
		t.Fatalf("owner withdraw error = %v, want unauthorized", err)
	}

	withdrawn, err := svc.Withdraw(context.Background(), seekerPrincipal(), "app-1")
	if err != nil {
		t.Fatalf("seeker withdraw: %v", err)
	}
	if withdrawn.Status != models.ApplicationWithdrawn {
		t.Errorf("status = %q, want withdrawn", withdrawn.Status)
	}
}

func TestUpdateDealStatus_CancelRestoresProperty(t *testing.T) {
	prop := testListing(models.PropertyDealInProgress, models.ListingRent)
	prop.PreviousStatus = models.PropertyHidden
	prop.ActiveApplicationID = "app-1"
	store := &mockApplicationStore{
		property:     prop,
		applications: []models.Application{seededApplication("app-1", models.ApplicationDealInProgress, 22000)},
	}
	svc, _, _ := newAppService(store)

	cancelled, err := svc.UpdateDealStatus(context.Background(), seekerPrincipal(), "prop-1",
		models.DealStatusRequest{DealStatus: models.ApplicationCancelled})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if cancelled.Status != models.ApplicationCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	if store.property.Status != models.PropertyHidden {
		t.Errorf("property status = %q, want hidden restored", store.property.Status)
	}
	if store.property.ActiveApplicationID != "" {
		t.Errorf("active application = %q, want cleared", store.property.ActiveApplicationID)
	}
}

func TestUpdateDealStatus_NoActiveDeal(t *testing.T) {
	store := &mockApplicationStore{property: testListing(models.PropertyActive, models.ListingRent)}
	svc, _, _ := newAppService(store)

	_, err := svc.UpdateDealStatus(context.Background(), ownerPrincipal(), "prop-1",
		models.DealStatusRequest{DealStatus: models.ApplicationCompleted})
	if !errors.Is(err, models.ErrNoActiveDeal) {
		t.Fatalf("error = %v, want %v", err, models.ErrNoActiveDeal)
	}
}
