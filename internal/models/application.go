package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceEntry is one offer in an application's price history.
type PriceEntry struct {
	Price     float64   `json:"price"`
	SetBy     Party     `json:"set_by"`
	SetByMail string    `json:"set_by_email,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceHistory is the append-only ledger of offers exchanged on one
// application. Entries are stored in insertion (chronological) order and
// are never edited or removed; a revision is always a new append.
type PriceHistory []PriceEntry

// Append returns the history extended with a new entry. If ts is zero the
// current time is used.
func (h PriceHistory) Append(price float64, setBy Party, email, note string, ts time.Time) PriceHistory {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return append(h, PriceEntry{
		Price:     price,
		SetBy:     setBy,
		SetByMail: email,
		Note:      note,
		Timestamp: ts,
	})
}

// Current returns the last entry overall. Its price must equal the
// application's ProposedPrice after any accepted mutation; the negotiation
// engine enforces that invariant on every write.
func (h PriceHistory) Current() (PriceEntry, bool) {
	if len(h) == 0 {
		return PriceEntry{}, false
	}
	return h[len(h)-1], true
}

// LatestBy returns the most recent entry set by the given party. Used to
// pre-fill a revision form with the seeker's last self-submitted price as
// distinct from the owner's counter.
func (h PriceHistory) LatestBy(setBy Party) (PriceEntry, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].SetBy == setBy {
			return h[i], true
		}
	}
	return PriceEntry{}, false
}

// Message is one entry in the per-application message log.
type Message struct {
	Sender      Party     `json:"sender"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Text        string    `json:"text"`
	LinkedPrice *float64  `json:"linked_price,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// StatusChange is one entry in the application's status history.
type StatusChange struct {
	Status    ApplicationStatus `json:"status"`
	ChangedBy Party             `json:"changed_by"`
	Email     string            `json:"changed_by_email,omitempty"`
	Note      string            `json:"note,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Application is one seeker's offer against one property, carrying the
// negotiation state machine field and the price-history ledger.
type Application struct {
	ID                   string            `json:"id"`
	PropertyID           string            `json:"property_id"`
	Owner                UserRef           `json:"owner"`
	Seeker               UserRef           `json:"seeker"`
	Status               ApplicationStatus `json:"status"`
	OriginalListingPrice float64           `json:"original_listing_price"`
	ProposedPrice        float64           `json:"proposed_price"`
	FinalPrice           *float64          `json:"final_price,omitempty"`
	Message              string            `json:"message,omitempty"`
	PriceHistory         PriceHistory      `json:"price_history"`
	Messages             []Message         `json:"messages,omitempty"`
	StatusHistory        []StatusChange    `json:"status_history"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	LastActionAt         time.Time         `json:"last_action_at"`
	LastActionBy         Party             `json:"last_action_by,omitempty"`
}

// Clone returns a deep copy of the application.
func (a *Application) Clone() Application {
	cp := *a
	cp.PriceHistory = append(PriceHistory(nil), a.PriceHistory...)
	cp.Messages = append([]Message(nil), a.Messages...)
	cp.StatusHistory = append([]StatusChange(nil), a.StatusHistory...)
	if a.FinalPrice != nil {
		fp := *a.FinalPrice
		cp.FinalPrice = &fp
	}
	return cp
}

// CreateApplicationRequest is the payload for a seeker submitting an offer.
type CreateApplicationRequest struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"property_id"`
	ProposedPrice float64 `json:"proposed_price"`
	Message       string  `json:"message,omitempty"`
}

// Validate checks required fields on CreateApplicationRequest.
// If ID is empty, a UUID is auto-generated.
func (r *CreateApplicationRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	if r.PropertyID == "" {
		return ErrMissingPropertyID
	}

	if r.ProposedPrice <= 0 {
		return ErrInvalidPrice
	}

	if len(r.Message) > 2000 {
		return ErrFieldTooLong("message", 2000)
	}

	return nil
}

// OwnerActionRequest is the payload for the owner acting on an application:
// accept, reject, or counter. Counter requires a positive proposed price.
type OwnerActionRequest struct {
	Status        ApplicationStatus `json:"status"` // deal-in-progress, rejected, or counter
	ProposedPrice float64           `json:"proposed_price,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// Validate checks OwnerActionRequest fields.
func (r *OwnerActionRequest) Validate() error {
	switch r.Status {
	case ApplicationDealInProgress, ApplicationRejected:
	case ApplicationCounter:
		if r.ProposedPrice <= 0 {
			return ErrInvalidPrice
		}
	default:
		return ErrInvalidOwnerAction
	}

	if len(r.Message) > 2000 {
		return ErrFieldTooLong("message", 2000)
	}

	return nil
}

// ReviseRequest is the payload for a seeker revising their offer after an
// owner counter.
type ReviseRequest struct {
	ProposedPrice float64 `json:"proposed_price"`
	Message       string  `json:"message,omitempty"`
}

// Validate checks ReviseRequest fields.
func (r *ReviseRequest) Validate() error {
	if r.ProposedPrice <= 0 {
		return ErrInvalidPrice
	}

	if len(r.Message) > 2000 {
		return ErrFieldTooLong("message", 2000)
	}

	return nil
}

// DealStatusRequest is the payload for finalizing or cancelling the deal on
// a property, scoped by property id.
type DealStatusRequest struct {
	DealStatus ApplicationStatus `json:"deal_status"` // completed or cancelled
}

// Validate checks that the requested deal status is one of the two outcomes.
func (r *DealStatusRequest) Validate() error {
	if r.DealStatus != ApplicationCompleted && r.DealStatus != ApplicationCancelled {
		return ErrInvalidDealStatus
	}
	return nil
}
