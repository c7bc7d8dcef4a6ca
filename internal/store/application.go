package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/negotiation"
)

// ApplicationStore handles application persistence and the transactional
// negotiation transitions.
type ApplicationStore struct {
	Base
}

// NewApplicationStore creates a new ApplicationStore.
func NewApplicationStore(base Base) *ApplicationStore {
	return &ApplicationStore{Base: base}
}

// CreateApplication opens a negotiation. The property row is locked first
// so the active check and the sibling scan see a stable view, then the
// seeded application from the seed callback is inserted.
func (s *ApplicationStore) CreateApplication(
	ctx context.Context,
	propertyID string,
	seed func(prop models.Property, existing []models.Application) (*models.Application, error),
) (*models.Application, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	prop, err := lockProperty(ctx, tx, propertyID)
	if err != nil {
		return nil, err
	}

	existing, err := queryApplications(ctx, tx,
		"SELECT "+applicationColumns+" FROM applications WHERE property_id = $1", propertyID)
	if err != nil {
		return nil, err
	}

	app, err := seed(*prop, existing)
	if err != nil {
		return nil, err
	}

	historyJSON, messagesJSON, statusJSON, err := applicationDocArgs(app)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO applications (id, property_id, owner_email, seeker_email, seeker_name,
			status, original_listing_price, proposed_price, final_price, message,
			price_history, messages, status_history, created_at, updated_at,
			last_action_at, last_action_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + applicationColumns

	row := tx.QueryRow(ctx, query,
		app.ID, app.PropertyID, app.Owner.Email, app.Seeker.Email, app.Seeker.Name,
		app.Status, app.OriginalListingPrice, app.ProposedPrice, app.FinalPrice, app.Message,
		historyJSON, messagesJSON, statusJSON, app.CreatedAt, app.UpdatedAt,
		app.LastActionAt, string(app.LastActionBy),
	)

	created, err := scanApplication(row.Scan)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("scanning created application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create application: %w", err)
	}

	s.notify("applications", "insert", created.ID)

	return created, nil
}

// GetApplication returns one application by id.
func (s *ApplicationStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+applicationColumns+" FROM applications WHERE id = $1", id)

	a, err := scanApplication(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrApplicationNotFound
		}

		return nil, fmt.Errorf("querying application: %w", err)
	}

	return a, nil
}

// ListByProperty returns every application for a property, newest first.
func (s *ApplicationStore) ListByProperty(ctx context.Context, propertyID string) ([]models.Application, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.list(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE property_id = $1 ORDER BY created_at DESC",
		propertyID)
}

// ListBySeeker returns every application filed by a seeker, newest first.
func (s *ApplicationStore) ListBySeeker(ctx context.Context, email string) ([]models.Application, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.list(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE seeker_email = $1 ORDER BY created_at DESC",
		email)
}

// ListByOwner returns every application against an owner's listings, newest first.
func (s *ApplicationStore) ListByOwner(ctx context.Context, email string) ([]models.Application, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.list(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE owner_email = $1 ORDER BY created_at DESC",
		email)
}

func (s *ApplicationStore) list(ctx context.Context, query string, args ...any) ([]models.Application, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application

	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}

		apps = append(apps, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}

	return apps, nil
}

// queryApplications runs a query inside tx and scans all rows.
func queryApplications(ctx context.Context, tx pgx.Tx, query string, args ...any) ([]models.Application, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application

	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}

		apps = append(apps, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}

	return apps, nil
}

// Transition runs one negotiation action atomically. It locks the
// property row, loads the application and its siblings, hands the
// snapshot to decide, and persists every document the decision touches in
// the same transaction. Concurrent accepts on one property serialize on
// the row lock; the loser sees the already-committed deal and fails.
func (s *ApplicationStore) Transition(
	ctx context.Context,
	applicationID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	row := tx.QueryRow(ctx, "SELECT property_id FROM applications WHERE id = $1", applicationID)

	var propertyID string
	if err := row.Scan(&propertyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrApplicationNotFound
		}

		return nil, fmt.Errorf("resolving application property: %w", err)
	}

	return s.transitionLocked(ctx, tx, propertyID, applicationID, decide)
}

// TransitionByProperty runs a negotiation action addressed by property:
// the deal endpoints operate on whichever application the property is
// committed to.
func (s *ApplicationStore) TransitionByProperty(
	ctx context.Context,
	propertyID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	return s.transitionLocked(ctx, tx, propertyID, "", decide)
}

// transitionLocked is the shared tail of Transition and
// TransitionByProperty; it owns the lock ordering (property before
// applications) and the decision persistence. An empty applicationID
// resolves to the property's active application.
func (s *ApplicationStore) transitionLocked(
	ctx context.Context,
	tx pgx.Tx,
	propertyID, applicationID string,
	decide func(snap negotiation.Snapshot) (*negotiation.Decision, error),
) (*negotiation.Decision, error) {
	prop, err := lockProperty(ctx, tx, propertyID)
	if err != nil {
		return nil, err
	}

	if applicationID == "" {
		applicationID = prop.ActiveApplicationID
		if applicationID == "" {
			return nil, models.ErrNoActiveDeal
		}
	}

	all, err := queryApplications(ctx, tx,
		"SELECT "+applicationColumns+" FROM applications WHERE property_id = $1", propertyID)
	if err != nil {
		return nil, err
	}

	snap := negotiation.Snapshot{Property: *prop}
	found := false

	for i := range all {
		if all[i].ID == applicationID {
			snap.Application = all[i]
			found = true

			continue
		}

		snap.Siblings = append(snap.Siblings, all[i])
	}

	if !found {
		return nil, models.ErrApplicationNotFound
	}

	d, err := decide(snap)
	if err != nil {
		return nil, err
	}

	if err := persistApplication(ctx, tx, &d.Application); err != nil {
		return nil, err
	}

	for i := range d.RejectedSiblings {
		if err := persistApplication(ctx, tx, &d.RejectedSiblings[i]); err != nil {
			return nil, err
		}
	}

	if d.Property != nil {
		if err := persistPropertyStatus(ctx, tx, d.Property); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}

	s.notify("applications", "update", d.Application.ID)

	return d, nil
}

// persistApplication writes every mutable application field inside tx.
func persistApplication(ctx context.Context, tx pgx.Tx, a *models.Application) error {
	historyJSON, messagesJSON, statusJSON, err := applicationDocArgs(a)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE applications
		SET status = $2,
			proposed_price = $3,
			final_price = $4,
			message = $5,
			price_history = $6,
			messages = $7,
			status_history = $8,
			updated_at = $9,
			last_action_at = $10,
			last_action_by = $11
		WHERE id = $1`,
		a.ID, a.Status, a.ProposedPrice, a.FinalPrice, a.Message,
		historyJSON, messagesJSON, statusJSON, a.UpdatedAt,
		a.LastActionAt, string(a.LastActionBy),
	)
	if err != nil {
		return fmt.Errorf("updating application %s: %w", a.ID, err)
	}

	return nil
}
