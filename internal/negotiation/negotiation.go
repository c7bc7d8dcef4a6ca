// Package negotiation implements the application lifecycle engine: the
// status transition table, the append-only price ledger rules, and the
// coupling between an application and its property's status.
//
// The engine is pure. Given a snapshot of one application, its property,
// and the sibling applications on the same property, Decide computes the
// full set of document mutations for one action, or rejects the action
// with a typed error. It performs no I/O; callers load the snapshot,
// invoke the engine, and persist the resulting Decision as a single
// atomic write. Concurrent accepts on one property must be serialized by
// the caller (the store does this with a row lock); the engine's
// already-in-deal guard is the last line of defense for the loser.
package negotiation

import (
	"time"

	"github.com/ghorbari/ghorbari/internal/models"
)

// Action is a negotiation action requested by one of the parties.
type Action string

// Actions.
const (
	ActionAccept        Action = "accept"         // owner accepts a pending offer
	ActionReject        Action = "reject"         // owner rejects a pending or countered offer
	ActionCounter       Action = "counter"        // owner counters a pending offer
	ActionWithdraw      Action = "withdraw"       // seeker withdraws a pending or countered offer
	ActionAcceptCounter Action = "accept-counter" // seeker accepts the owner's counter
	ActionRevise        Action = "revise"         // seeker revises after a counter
	ActionComplete      Action = "mark-completed" // either party finalizes the deal
	ActionCancel        Action = "cancel"         // either party cancels the deal
)

// Actor is the acting user, resolved to a party relative to the
// application by the caller (owner, seeker, or admin).
type Actor struct {
	Email string
	Party models.Party
}

// Request is one action against one application.
type Request struct {
	Action  Action
	Actor   Actor
	Price   float64 // counter and revise only
	Message string
	Now     time.Time // defaults to time.Now
}

// Snapshot is the consistent view of documents the engine decides over.
// Siblings are the other applications referencing the same property.
type Snapshot struct {
	Application models.Application
	Property    models.Property
	Siblings    []models.Application
}

// Decision describes every document mutation produced by one accepted
// action. Property is nil when the action touched only the application.
// The caller must persist the application, property, and rejected siblings
// together or not at all.
type Decision struct {
	Action           Action
	Application      models.Application
	Property         *models.Property
	RejectedSiblings []models.Application

	// PreviousStatusMissing is set when a cancel restored a property whose
	// previousStatus was never recorded and the engine fell back to active.
	PreviousStatusMissing bool
}

// Decide applies one action to the snapshot and returns the resulting
// mutations, leaving the snapshot itself untouched. A guard failure
// returns a typed *Error and no Decision.
func Decide(snap Snapshot, req Request) (*Decision, error) {
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}

	app := snap.Application.Clone()
	state := app.Status

	if state.Terminal() {
		return nil, req.err(KindTerminalState, state)
	}

	var (
		d   *Decision
		err error
	)

	switch req.Action {
	case ActionAccept:
		d, err = decideAccept(snap, req, app)
	case ActionReject:
		d, err = decideReject(req, app)
	case ActionCounter:
		d, err = decideCounter(req, app)
	case ActionWithdraw:
		d, err = decideWithdraw(req, app)
	case ActionAcceptCounter:
		d, err = decideAcceptCounter(snap, req, app)
	case ActionRevise:
		d, err = decideRevise(req, app)
	case ActionComplete:
		d, err = decideComplete(snap, req, app)
	case ActionCancel:
		d, err = decideCancel(snap, req, app)
	default:
		return nil, req.errf(KindInvalidTransition, state, "unknown action %q", req.Action)
	}

	if err != nil {
		return nil, err
	}

	if err := checkLedger(&d.Application); err != nil {
		return nil, err
	}

	return d, nil
}

// requireState fails with InvalidTransition unless the application is in
// one of the permitted states for this action.
func (r Request) requireState(app *models.Application, allowed ...models.ApplicationStatus) error {
	for _, s := range allowed {
		if app.Status == s {
			return nil
		}
	}
	return r.err(KindInvalidTransition, app.Status)
}

// requireParty fails with Unauthorized unless the actor acts as one of the
// permitted parties.
func (r Request) requireParty(app *models.Application, allowed ...models.Party) error {
	for _, p := range allowed {
		if r.Actor.Party == p {
			return nil
		}
	}
	return r.errf(KindUnauthorized, app.Status, "action requires %v", allowed)
}

func decideAccept(snap Snapshot, req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartyOwner); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationPending); err != nil {
		return nil, err
	}

	return enterDeal(snap, req, app, "Owner accepted application - deal in progress")
}

func decideAcceptCounter(snap Snapshot, req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartySeeker); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationCounter); err != nil {
		return nil, err
	}

	return enterDeal(snap, req, app, "Seeker accepted counter offer - deal in progress")
}

// enterDeal is the shared tail of accept and accept-counter: the
// application moves to deal-in-progress at the current proposed price and
// the property coupler records previousStatus, commits the property to
// this application, and force-rejects competing siblings.
func enterDeal(snap Snapshot, req Request, app models.Application, note string) (*Decision, error) {
	prop := snap.Property.Clone()

	rejected, err := couplerEnterDeal(&prop, &app, snap.Siblings, req)
	if err != nil {
		return nil, err
	}

	final := app.ProposedPrice
	app.Status = models.ApplicationDealInProgress
	app.FinalPrice = &final
	recordAction(&app, req, note)

	return &Decision{
		Action:           req.Action,
		Application:      app,
		Property:         &prop,
		RejectedSiblings: rejected,
	}, nil
}

func decideReject(req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartyOwner); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationPending, models.ApplicationCounter); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationRejected
	recordAction(&app, req, "Owner rejected application")

	return &Decision{Action: req.Action, Application: app}, nil
}

func decideWithdraw(req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartySeeker); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationPending, models.ApplicationCounter); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationWithdrawn
	recordAction(&app, req, "Seeker withdrew application")

	return &Decision{Action: req.Action, Application: app}, nil
}

func decideCounter(req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartyOwner); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationPending); err != nil {
		return nil, err
	}
	if req.Price <= 0 {
		return nil, req.errf(KindGuardViolation, app.Status, "counter price must be positive")
	}

	app.PriceHistory = app.PriceHistory.Append(req.Price, models.PartyOwner, req.Actor.Email, "Owner counter offer", req.Now)
	app.ProposedPrice = req.Price
	app.Status = models.ApplicationCounter
	appendMessage(&app, req, models.PartyOwner)
	recordAction(&app, req, "Owner sent counter offer")

	return &Decision{Action: req.Action, Application: app}, nil
}

func decideRevise(req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartySeeker); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationCounter); err != nil {
		return nil, err
	}
	if req.Price <= 0 {
		return nil, req.errf(KindGuardViolation, app.Status, "revised price must be positive")
	}

	app.PriceHistory = app.PriceHistory.Append(req.Price, models.PartySeeker, req.Actor.Email, "Seeker revised offer", req.Now)
	app.ProposedPrice = req.Price
	app.Status = models.ApplicationPending
	if req.Message != "" {
		app.Message = req.Message
	}
	appendMessage(&app, req, models.PartySeeker)
	recordAction(&app, req, "Seeker revised offer - waiting for owner response")

	return &Decision{Action: req.Action, Application: app}, nil
}

func decideComplete(snap Snapshot, req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartyOwner, models.PartySeeker, models.PartyAdmin); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationDealInProgress); err != nil {
		return nil, err
	}

	prop := snap.Property.Clone()
	if err := couplerFinalize(&prop, &app, req); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationCompleted
	recordAction(&app, req, "Deal completed - property marked as "+string(prop.Status))

	// Any sibling that somehow survived enterDeal in a live state is swept
	// here so a finalized property never retains open applications.
	rejected := rejectSiblings(snap.Siblings, app.ID, req,
		"Auto-rejected: property deal has been finalized")

	return &Decision{
		Action:           req.Action,
		Application:      app,
		Property:         &prop,
		RejectedSiblings: rejected,
	}, nil
}

func decideCancel(snap Snapshot, req Request, app models.Application) (*Decision, error) {
	if err := req.requireParty(&app, models.PartyOwner, models.PartySeeker, models.PartyAdmin); err != nil {
		return nil, err
	}
	if err := req.requireState(&app, models.ApplicationDealInProgress); err != nil {
		return nil, err
	}

	prop := snap.Property.Clone()
	prevMissing, err := couplerRestorePrevious(&prop, &app, req)
	if err != nil {
		return nil, err
	}

	app.Status = models.ApplicationCancelled
	recordAction(&app, req, "Deal cancelled")

	return &Decision{
		Action:                req.Action,
		Application:           app,
		Property:              &prop,
		PreviousStatusMissing: prevMissing,
	}, nil
}

// recordAction updates the bookkeeping fields shared by every transition.
func recordAction(app *models.Application, req Request, note string) {
	app.StatusHistory = append(app.StatusHistory, models.StatusChange{
		Status:    app.Status,
		ChangedBy: req.Actor.Party,
		Email:     req.Actor.Email,
		Note:      note,
		Timestamp: req.Now,
	})
	app.UpdatedAt = req.Now
	app.LastActionAt = req.Now
	app.LastActionBy = req.Actor.Party
}

// appendMessage attaches the request message, linked to the price it
// accompanied, to the application's message log.
func appendMessage(app *models.Application, req Request, sender models.Party) {
	if req.Message == "" {
		return
	}

	price := req.Price
	app.Messages = append(app.Messages, models.Message{
		Sender:      sender,
		SenderEmail: req.Actor.Email,
		Text:        req.Message,
		LinkedPrice: &price,
		Timestamp:   req.Now,
	})
}

// checkLedger enforces the cross-field invariant: after any accepted
// mutation, ProposedPrice equals the price of the last ledger entry.
func checkLedger(app *models.Application) error {
	cur, ok := app.PriceHistory.Current()
	if !ok {
		return &Error{
			Kind:   KindGuardViolation,
			State:  app.Status,
			Reason: "price history is empty",
		}
	}
	if cur.Price != app.ProposedPrice {
		return &Error{
			Kind:   KindGuardViolation,
			State:  app.Status,
			Reason: "proposed price does not match last ledger entry",
		}
	}
	return nil
}
