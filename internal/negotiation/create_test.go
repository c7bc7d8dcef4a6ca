package negotiation

import (
	"errors"
	"testing"

	"github.com/ghorbari/ghorbari/internal/models"
)

func TestNewApplication(t *testing.T) {
	seeker := models.Principal{Email: "seeker@example.com", Name: "Seeker", Role: models.RoleSeeker}

	tests := []struct {
		name       string
		propStatus models.PropertyStatus
		price      float64
		seeker     models.Principal
		existing   []models.Application
		wantKind   Kind
	}{
		{name: "opens pending on active property", propStatus: models.PropertyActive, price: 9000, seeker: seeker},
		{name: "offer at listing price allowed", propStatus: models.PropertyActive, price: 10000, seeker: seeker},
		{name: "pending property rejects applications", propStatus: models.PropertyPending, price: 9000, seeker: seeker, wantKind: KindGuardViolation},
		{name: "hidden property rejects applications", propStatus: models.PropertyHidden, price: 9000, seeker: seeker, wantKind: KindGuardViolation},
		{name: "property in deal rejects applications", propStatus: models.PropertyDealInProgress, price: 9000, seeker: seeker, wantKind: KindGuardViolation},
		{name: "owner cannot apply to own listing", propStatus: models.PropertyActive, price: 9000, seeker: models.Principal{Email: "owner@example.com", Role: models.RoleOwner}, wantKind: KindGuardViolation},
		{name: "zero price rejected", propStatus: models.PropertyActive, price: 0, seeker: seeker, wantKind: KindGuardViolation},
		{name: "offer above listing price rejected", propStatus: models.PropertyActive, price: 10001, seeker: seeker, wantKind: KindGuardViolation},
		{
			name: "live application blocks a second one", propStatus: models.PropertyActive, price: 9000, seeker: seeker,
			existing: []models.Application{testApplication("a0", models.ApplicationCounter, 8000)},
			wantKind: KindGuardViolation,
		},
		{
			name: "completed application blocks a second one", propStatus: models.PropertyActive, price: 9000, seeker: seeker,
			existing: []models.Application{testApplication("a0", models.ApplicationCompleted, 8000)},
			wantKind: KindGuardViolation,
		},
		{
			name: "withdrawn application does not block", propStatus: models.PropertyActive, price: 9000, seeker: seeker,
			existing: []models.Application{testApplication("a0", models.ApplicationWithdrawn, 8000)},
		},
		{
			name: "rejected application does not block", propStatus: models.PropertyActive, price: 9000, seeker: seeker,
			existing: []models.Application{testApplication("a0", models.ApplicationRejected, 8000)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prop := testProperty(tc.propStatus, models.ListingRent)

			app, err := NewApplication(prop, CreateRequest{
				ID:       "a1",
				Seeker:   tc.seeker,
				Price:    tc.price,
				Message:  "Interested in the flat",
				Existing: tc.existing,
				Now:      testNow,
			})

			if tc.wantKind != "" {
				if err == nil {
					t.Fatalf("expected %s error, got application %+v", tc.wantKind, app)
				}
				if got := KindOf(err); got != tc.wantKind {
					t.Fatalf("error kind = %q, want %q (%v)", got, tc.wantKind, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if app.Status != models.ApplicationPending {
				t.Errorf("status = %q, want pending", app.Status)
			}
			if app.OriginalListingPrice != prop.Price {
				t.Errorf("original listing price = %v, want %v", app.OriginalListingPrice, prop.Price)
			}
			if len(app.PriceHistory) != 1 || app.PriceHistory[0].Price != tc.price || app.PriceHistory[0].SetBy != models.PartySeeker {
				t.Errorf("ledger not seeded with seeker offer: %+v", app.PriceHistory)
			}
			if len(app.StatusHistory) != 1 || app.StatusHistory[0].Status != models.ApplicationPending {
				t.Errorf("status history not seeded: %+v", app.StatusHistory)
			}
			if len(app.Messages) != 1 || app.Messages[0].LinkedPrice == nil || *app.Messages[0].LinkedPrice != tc.price {
				t.Errorf("opening message not linked to offer: %+v", app.Messages)
			}
		})
	}
}

func TestReopen(t *testing.T) {
	tests := []struct {
		name     string
		listing  models.ListingType
		status   models.PropertyStatus
		party    models.Party
		wantKind Kind
	}{
		{name: "owner reopens rented listing", listing: models.ListingRent, status: models.PropertyRented, party: models.PartyOwner},
		{name: "admin reopens rented listing", listing: models.ListingRent, status: models.PropertyRented, party: models.PartyAdmin},
		{name: "seeker cannot reopen", listing: models.ListingRent, status: models.PropertyRented, party: models.PartySeeker, wantKind: KindUnauthorized},
		{name: "sold sale listing is terminal", listing: models.ListingSale, status: models.PropertySold, party: models.PartyOwner, wantKind: KindGuardViolation},
		{name: "active listing cannot be reopened", listing: models.ListingRent, status: models.PropertyActive, party: models.PartyOwner, wantKind: KindGuardViolation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prop := testProperty(tc.status, tc.listing)

			got, err := Reopen(prop, Request{
				Actor: Actor{Email: "owner@example.com", Party: tc.party},
				Now:   testNow,
			})

			if tc.wantKind != "" {
				if err == nil {
					t.Fatalf("expected %s error, got %+v", tc.wantKind, got)
				}
				if kind := KindOf(err); kind != tc.wantKind {
					t.Fatalf("error kind = %q, want %q (%v)", kind, tc.wantKind, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != models.PropertyActive {
				t.Errorf("status = %q, want active", got.Status)
			}
		})
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := (Request{Action: ActionAccept, Actor: Actor{Party: models.PartySeeker}}).
		errf(KindUnauthorized, models.ApplicationPending, "action requires owner")

	if !errors.Is(err, ErrUnauthorized) {
		t.Error("errors.Is should match the unauthorized sentinel")
	}
	if errors.Is(err, ErrAlreadyInDeal) {
		t.Error("errors.Is must not match a different kind")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf of a non-negotiation error should be empty")
	}
}
