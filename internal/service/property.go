// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ghorbari/ghorbari/internal/domain"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

// PropertyStore is the data-access interface PropertyService depends on.
type PropertyStore interface {
	CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error)
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	ListProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, bool, error)
	UpdateProperty(ctx context.Context, id string, req models.UpdatePropertyRequest) (*models.Property, error)
	UpdatePropertyStatus(ctx context.Context, id string, mutate func(p *models.Property) (*models.Property, error)) (*models.Property, error)
	DeleteProperty(ctx context.Context, id string) error
}

// Notifier pushes events to connected WebSocket clients.
type Notifier interface {
	NotifyUsers(eventType string, emails []string, data json.RawMessage)
}

// Compile-time check: *PropertyService must satisfy domain.PropertyService.
var _ domain.PropertyService = (*PropertyService)(nil)

// PropertyService wraps PropertyStore with ownership checks, moderation
// rules, the reopen guard, and the read-through cache.
type PropertyService struct {
	store       PropertyStore
	cache       *PropertyCache
	auditWorker AuditEnqueuer
	notifier    Notifier
	log         *logrus.Logger

	// group collapses concurrent cache-miss fills for the same listing
	// into a single database read.
	group singleflight.Group
}

// NewPropertyService creates a PropertyService. cache and notifier may be nil.
func NewPropertyService(
	store PropertyStore,
	cache *PropertyCache,
	auditWorker AuditEnqueuer,
	notifier Notifier,
	log *logrus.Logger,
) *PropertyService {
	return &PropertyService{
		store:       store,
		cache:       cache,
		auditWorker: auditWorker,
		notifier:    notifier,
		log:         log,
	}
}

// ListProperties returns listings matching the filter (pass-through).
func (s *PropertyService) ListProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, bool, error) {
	return s.store.ListProperties(ctx, f)
}

// GetProperty returns one listing, serving from cache when possible.
func (s *PropertyService) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	if p := s.cache.Get(ctx, id); p != nil {
		return p, nil
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		p, err := s.store.GetProperty(ctx, id)
		if err != nil {
			return nil, err
		}

		s.cache.Set(ctx, p)

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Property), nil
}

// CreateProperty submits a new listing in pending status, awaiting
// moderation.
func (s *PropertyService) CreateProperty(
	ctx context.Context, owner models.Principal, req models.CreatePropertyRequest,
) (*models.Property, error) {
	now := time.Now().UTC()

	p := &models.Property{
		ID:           req.ID,
		Owner:        models.UserRef{Email: owner.Email, Name: owner.Name},
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		ListingType:  req.ListingType,
		PropertyType: req.PropertyType,
		Location:     req.Location,
		Details:      req.Details,
		AreaSqFt:     req.AreaSqFt,
		Images:       req.Images,
		Amenities:    req.Amenities,
		Status:       models.PropertyPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.store.CreateProperty(ctx, p)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, "property.create", "property", created.ID, owner.Email,
		map[string]any{"title": created.Title, "listing_type": created.ListingType})

	return created, nil
}

// UpdateProperty edits the mutable fields of a listing the actor owns.
func (s *PropertyService) UpdateProperty(
	ctx context.Context, actor models.Principal, id string, req models.UpdatePropertyRequest,
) (*models.Property, error) {
	current, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Owner.Email != actor.Email && actor.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	updated, err := s.store.UpdateProperty(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	auditAsync(s.auditWorker, "property.update", "property", id, actor.Email, nil)

	return updated, nil
}

// ModerateProperty applies an admin decision to a pending listing:
// active makes it visible, rejected returns it to the owner.
func (s *PropertyService) ModerateProperty(
	ctx context.Context, actor models.Principal, id string, req models.ModeratePropertyRequest,
) (*models.Property, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	updated, err := s.store.UpdatePropertyStatus(ctx, id, func(p *models.Property) (*models.Property, error) {
		if p.Status != models.PropertyPending {
			return nil, models.ErrInvalidModeration
		}

		p.Status = req.Decision
		p.UpdatedAt = time.Now().UTC()

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	auditAsync(s.auditWorker, "property.moderate", "property", id, actor.Email,
		map[string]any{"decision": req.Decision, "note": req.Note})
	s.notifyProperty("property.moderated", updated)

	return updated, nil
}

// SetHidden toggles an active listing out of (or a hidden one back into)
// public view. Only the owner or an admin may do this, and only outside a
// deal.
func (s *PropertyService) SetHidden(
	ctx context.Context, actor models.Principal, id string, hidden bool,
) (*models.Property, error) {
	updated, err := s.store.UpdatePropertyStatus(ctx, id, func(p *models.Property) (*models.Property, error) {
		if p.Owner.Email != actor.Email && actor.Role != models.RoleAdmin {
			return nil, models.ErrForbidden
		}

		switch {
		case hidden && p.Status == models.PropertyActive:
			p.Status = models.PropertyHidden
		case !hidden && p.Status == models.PropertyHidden:
			p.Status = models.PropertyActive
		default:
			return nil, models.ErrInvalidModeration
		}

		p.UpdatedAt = time.Now().UTC()

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	auditAsync(s.auditWorker, "property.set_hidden", "property", id, actor.Email,
		map[string]any{"hidden": hidden})

	return updated, nil
}

// RemoveProperty takes a listing off the marketplace permanently. Listings
// in a deal cannot be removed; the deal must conclude first.
func (s *PropertyService) RemoveProperty(
	ctx context.Context, actor models.Principal, id string,
) (*models.Property, error) {
	updated, err := s.store.UpdatePropertyStatus(ctx, id, func(p *models.Property) (*models.Property, error) {
		if p.Owner.Email != actor.Email && actor.Role != models.RoleAdmin {
			return nil, models.ErrForbidden
		}

		if p.Status == models.PropertyDealInProgress {
			return nil, models.ErrInvalidModeration
		}

		p.Status = models.PropertyRemoved
		p.PreviousStatus = ""
		p.ActiveApplicationID = ""
		p.UpdatedAt = time.Now().UTC()

		return p, nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	auditAsync(s.auditWorker, "property.remove", "property", id, actor.Email, nil)

	return updated, nil
}

// ReopenProperty returns a rented rent listing to active so it can take
// new applications. Sold sale listings stay sold.
func (s *PropertyService) ReopenProperty(
	ctx context.Context, actor models.Principal, id string,
) (*models.Property, error) {
	updated, err := s.store.UpdatePropertyStatus(ctx, id, func(p *models.Property) (*models.Property, error) {
		party, err := resolvePropertyParty(p, actor)
		if err != nil {
			return nil, err
		}

		return negotiation.Reopen(*p, negotiation.Request{
			Actor: negotiation.Actor{Email: actor.Email, Party: party},
			Now:   time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	auditAsync(s.auditWorker, "property.reopen", "property", id, actor.Email, nil)
	s.notifyProperty("property.reopened", updated)

	return updated, nil
}

// resolvePropertyParty maps a principal to its party relative to a
// property. Non-owner, non-admin callers act as seekers.
func resolvePropertyParty(p *models.Property, actor models.Principal) (models.Party, error) {
	switch {
	case actor.Role == models.RoleAdmin:
		return models.PartyAdmin, nil
	case p.Owner.Email == actor.Email:
		return models.PartyOwner, nil
	default:
		return models.PartySeeker, nil
	}
}

// notifyProperty pushes a property event to its owner.
func (s *PropertyService) notifyProperty(eventType string, p *models.Property) {
	if s.notifier == nil || p == nil {
		return
	}

	data, err := json.Marshal(map[string]any{"property_id": p.ID, "status": p.Status})
	if err != nil {
		return
	}

	s.notifier.NotifyUsers(eventType, []string{p.Owner.Email}, data)
}
