package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/domain"
	"github.com/ghorbari/ghorbari/internal/metrics"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

// ApplicationStore is the data-access interface ApplicationService depends
// on. Transition and TransitionByProperty run the decide callback inside a
// transaction holding the property row lock.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, propertyID string, seed func(prop models.Property, existing []models.Application) (*models.Application, error)) (*models.Application, error)
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.Application, error)
	ListBySeeker(ctx context.Context, email string) ([]models.Application, error)
	ListByOwner(ctx context.Context, email string) ([]models.Application, error)
	Transition(ctx context.Context, applicationID string, decide func(snap negotiation.Snapshot) (*negotiation.Decision, error)) (*negotiation.Decision, error)
	TransitionByProperty(ctx context.Context, propertyID string, decide func(snap negotiation.Snapshot) (*negotiation.Decision, error)) (*negotiation.Decision, error)
}

// Compile-time check: *ApplicationService must satisfy domain.ApplicationService.
var _ domain.ApplicationService = (*ApplicationService)(nil)

// ApplicationService drives the negotiation lifecycle. It resolves the
// caller to a party, builds the engine request for each endpoint, and hands
// the decision to the store for atomic persistence. Side effects (audit,
// events, metrics, cache invalidation) run after the commit.
type ApplicationService struct {
	store       ApplicationStore
	cache       *PropertyCache
	auditWorker AuditEnqueuer
	notifier    Notifier
	log         *logrus.Logger
}

// NewApplicationService creates an ApplicationService. cache and notifier
// may be nil.
func NewApplicationService(
	store ApplicationStore,
	cache *PropertyCache,
	auditWorker AuditEnqueuer,
	notifier Notifier,
	log *logrus.Logger,
) *ApplicationService {
	return &ApplicationService{
		store:       store,
		cache:       cache,
		auditWorker: auditWorker,
		notifier:    notifier,
		log:         log,
	}
}

// CreateApplication opens a negotiation on behalf of a seeker. The store
// locks the property row so the creation guards see a stable view of the
// listing and the seeker's prior applications.
func (s *ApplicationService) CreateApplication(
	ctx context.Context, seeker models.Principal, req models.CreateApplicationRequest,
) (*models.Application, error) {
	created, err := s.store.CreateApplication(ctx, req.PropertyID,
		func(prop models.Property, existing []models.Application) (*models.Application, error) {
			return negotiation.NewApplication(prop, negotiation.CreateRequest{
				ID:       req.ID,
				Seeker:   seeker,
				Price:    req.ProposedPrice,
				Message:  req.Message,
				Existing: existing,
			})
		})
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, "application.create", "application", created.ID, seeker.Email,
		map[string]any{"property_id": created.PropertyID, "proposed_price": created.ProposedPrice})
	s.notifyParties("application.created", created)

	return created, nil
}

// GetApplication returns one application. Only the owner, the seeker, and
// admins may read it.
func (s *ApplicationService) GetApplication(
	ctx context.Context, actor models.Principal, id string,
) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := resolveParty(app, actor); err != nil {
		return nil, models.ErrForbidden
	}

	return app, nil
}

// ListForProperty returns every application on a property. Restricted to
// the listing owner and admins; seekers see only their own via ListSubmitted.
func (s *ApplicationService) ListForProperty(
	ctx context.Context, actor models.Principal, propertyID string,
) ([]models.Application, error) {
	apps, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleAdmin {
		return apps, nil
	}

	for i := range apps {
		if apps[i].Owner.Email != actor.Email {
			return nil, models.ErrForbidden
		}
	}

	return apps, nil
}

// ListSubmitted returns the actor's own applications, newest first.
func (s *ApplicationService) ListSubmitted(ctx context.Context, actor models.Principal) ([]models.Application, error) {
	return s.store.ListBySeeker(ctx, actor.Email)
}

// ListReceived returns applications against the actor's listings, newest first.
func (s *ApplicationService) ListReceived(ctx context.Context, actor models.Principal) ([]models.Application, error) {
	return s.store.ListByOwner(ctx, actor.Email)
}

// OwnerAction applies the owner's decision to a pending or countered
// application: accept it into a deal, reject it, or counter with a new price.
func (s *ApplicationService) OwnerAction(
	ctx context.Context, actor models.Principal, id string, req models.OwnerActionRequest,
) (*models.Application, error) {
	var action negotiation.Action

	switch req.Status {
	case models.ApplicationDealInProgress:
		action = negotiation.ActionAccept
	case models.ApplicationRejected:
		action = negotiation.ActionReject
	case models.ApplicationCounter:
		action = negotiation.ActionCounter
	default:
		return nil, models.ErrInvalidOwnerAction
	}

	return s.transition(ctx, actor, id, action, req.ProposedPrice, req.Message)
}

// Withdraw retires the seeker's own pending or countered application.
func (s *ApplicationService) Withdraw(
	ctx context.Context, actor models.Principal, id string,
) (*models.Application, error) {
	return s.transition(ctx, actor, id, negotiation.ActionWithdraw, 0, "")
}

// Revise replaces the seeker's offer after an owner counter, returning the
// application to pending.
func (s *ApplicationService) Revise(
	ctx context.Context, actor models.Principal, id string, req models.ReviseRequest,
) (*models.Application, error) {
	return s.transition(ctx, actor, id, negotiation.ActionRevise, req.ProposedPrice, req.Message)
}

// AcceptCounter accepts the owner's counter offer, entering the deal at the
// countered price.
func (s *ApplicationService) AcceptCounter(
	ctx context.Context, actor models.Principal, id string,
) (*models.Application, error) {
	return s.transition(ctx, actor, id, negotiation.ActionAcceptCounter, 0, "")
}

// UpdateDealStatus finalizes or cancels the deal on a property, addressed
// by property id; the store resolves the committed application.
func (s *ApplicationService) UpdateDealStatus(
	ctx context.Context, actor models.Principal, propertyID string, req models.DealStatusRequest,
) (*models.Application, error) {
	action := negotiation.ActionComplete
	if req.DealStatus == models.ApplicationCancelled {
		action = negotiation.ActionCancel
	}

	d, err := s.store.TransitionByProperty(ctx, propertyID, s.decider(actor, action, 0, ""))
	if err != nil {
		metrics.NegotiationTransitions.WithLabelValues(string(action), "error").Inc()
		return nil, err
	}

	s.afterTransition(actor, action, d)

	return &d.Application, nil
}

// transition is the shared path for all application-addressed actions.
func (s *ApplicationService) transition(
	ctx context.Context, actor models.Principal, id string,
	action negotiation.Action, price float64, message string,
) (*models.Application, error) {
	d, err := s.store.Transition(ctx, id, s.decider(actor, action, price, message))
	if err != nil {
		metrics.NegotiationTransitions.WithLabelValues(string(action), "error").Inc()
		return nil, err
	}

	s.afterTransition(actor, action, d)

	return &d.Application, nil
}

// decider builds the decide callback the store runs under the property lock.
func (s *ApplicationService) decider(
	actor models.Principal, action negotiation.Action, price float64, message string,
) func(snap negotiation.Snapshot) (*negotiation.Decision, error) {
	return func(snap negotiation.Snapshot) (*negotiation.Decision, error) {
		party, err := resolveParty(&snap.Application, actor)
		if err != nil {
			return nil, err
		}

		return negotiation.Decide(snap, negotiation.Request{
			Action:  action,
			Actor:   negotiation.Actor{Email: actor.Email, Party: party},
			Price:   price,
			Message: message,
			Now:     time.Now().UTC(),
		})
	}
}

// afterTransition runs the post-commit side effects for a decision.
func (s *ApplicationService) afterTransition(
	actor models.Principal, action negotiation.Action, d *negotiation.Decision,
) {
	metrics.NegotiationTransitions.WithLabelValues(string(action), "ok").Inc()

	if d.PreviousStatusMissing {
		s.log.WithFields(logrus.Fields{
			"application_id": d.Application.ID,
			"property_id":    d.Application.PropertyID,
		}).Warn("previous property status missing on cancel, restored to active")
	}

	if d.Property != nil {
		s.cache.Invalidate(context.Background(), d.Property.ID)
	}

	auditAsync(s.auditWorker, "application."+string(action), "application",
		d.Application.ID, actor.Email,
		map[string]any{"status": d.Application.Status, "property_id": d.Application.PropertyID})

	eventType := "application.updated"
	if action == negotiation.ActionComplete || action == negotiation.ActionCancel {
		eventType = "deal.updated"
	}

	s.notifyParties(eventType, &d.Application)

	for i := range d.RejectedSiblings {
		s.notifyParties("application.updated", &d.RejectedSiblings[i])
	}
}

// resolveParty maps a principal to its party relative to an application.
// Callers who are neither party nor admin are not allowed to act at all.
func resolveParty(app *models.Application, actor models.Principal) (models.Party, error) {
	switch {
	case actor.Role == models.RoleAdmin:
		return models.PartyAdmin, nil
	case app.Owner.Email == actor.Email:
		return models.PartyOwner, nil
	case app.Seeker.Email == actor.Email:
		return models.PartySeeker, nil
	default:
		return "", &negotiation.Error{
			Kind:   negotiation.KindUnauthorized,
			State:  app.Status,
			Reason: "caller is not a party to this application",
		}
	}
}

// notifyParties pushes an application event to both negotiation parties.
func (s *ApplicationService) notifyParties(eventType string, app *models.Application) {
	if s.notifier == nil || app == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"application_id": app.ID,
		"property_id":    app.PropertyID,
		"status":         app.Status,
	})
	if err != nil {
		return
	}

	s.notifier.NotifyUsers(eventType, []string{app.Owner.Email, app.Seeker.Email}, data)
}
