package negotiation

import (
	"time"

	"github.com/ghorbari/ghorbari/internal/models"
)

// CreateRequest carries everything needed to open a negotiation.
// Existing holds the seeker's own prior applications for the property so
// the one-live-application-per-seeker rule can be enforced.
type CreateRequest struct {
	ID       string
	Seeker   models.Principal
	Price    float64
	Message  string
	Existing []models.Application
	Now      time.Time
}

// NewApplication seeds a pending application against an active property,
// with the ledger opened by the seeker's offer. Guards:
//
//   - only active properties accept applications
//   - owners cannot apply to their own listing
//   - the opening offer is positive and at most the listing price
//   - a seeker with a live or completed application for the property
//     must not file another; rejected, withdrawn, and cancelled ones
//     do not block a fresh attempt
func NewApplication(prop models.Property, req CreateRequest) (*models.Application, error) {
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}

	guard := Request{Action: "create", Actor: Actor{Email: req.Seeker.Email, Party: models.PartySeeker}, Now: req.Now}

	if prop.Status != models.PropertyActive {
		return nil, guard.errf(KindGuardViolation, "",
			"property is %q; only active properties can receive applications", prop.Status)
	}

	if prop.Owner.Email == req.Seeker.Email {
		return nil, guard.errf(KindGuardViolation, "", "cannot apply to your own property")
	}

	if req.Price <= 0 {
		return nil, guard.errf(KindGuardViolation, "", "proposed price must be positive")
	}

	if req.Price > prop.Price {
		return nil, guard.errf(KindGuardViolation, "",
			"opening offer %v exceeds listing price %v", req.Price, prop.Price)
	}

	for i := range req.Existing {
		if req.Existing[i].Seeker.Email == req.Seeker.Email && req.Existing[i].Status.Blocking() {
			return nil, guard.errf(KindGuardViolation, "",
				"an application for this property already exists in state %q", req.Existing[i].Status)
		}
	}

	app := &models.Application{
		ID:                   req.ID,
		PropertyID:           prop.ID,
		Owner:                prop.Owner,
		Seeker:               models.UserRef{Email: req.Seeker.Email, Name: req.Seeker.Name},
		Status:               models.ApplicationPending,
		OriginalListingPrice: prop.Price,
		ProposedPrice:        req.Price,
		Message:              req.Message,
		PriceHistory: models.PriceHistory{}.Append(
			req.Price, models.PartySeeker, req.Seeker.Email, "Initial offer", req.Now),
		StatusHistory: []models.StatusChange{{
			Status:    models.ApplicationPending,
			ChangedBy: models.PartySeeker,
			Email:     req.Seeker.Email,
			Note:      "Application submitted",
			Timestamp: req.Now,
		}},
		CreatedAt:    req.Now,
		UpdatedAt:    req.Now,
		LastActionAt: req.Now,
		LastActionBy: models.PartySeeker,
	}

	if req.Message != "" {
		price := req.Price
		app.Messages = []models.Message{{
			Sender:      models.PartySeeker,
			SenderEmail: req.Seeker.Email,
			Text:        req.Message,
			LinkedPrice: &price,
			Timestamp:   req.Now,
		}}
	}

	return app, nil
}
