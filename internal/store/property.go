package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ghorbari/ghorbari/internal/models"
)

// PropertyStore handles property listing CRUD and status changes.
type PropertyStore struct {
	Base
}

// NewPropertyStore creates a new PropertyStore.
func NewPropertyStore(base Base) *PropertyStore {
	return &PropertyStore{Base: base}
}

// CreateProperty inserts a new listing and returns the created record.
func (s *PropertyStore) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	locationJSON, err := json.Marshal(p.Location)
	if err != nil {
		return nil, fmt.Errorf("encoding property location: %w", err)
	}

	detailsJSON, err := json.Marshal(p.Details)
	if err != nil {
		return nil, fmt.Errorf("encoding property details: %w", err)
	}

	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return nil, fmt.Errorf("encoding property images: %w", err)
	}

	amenitiesJSON, err := json.Marshal(p.Amenities)
	if err != nil {
		return nil, fmt.Errorf("encoding property amenities: %w", err)
	}

	query := `INSERT INTO properties (id, owner_email, owner_name, title, description, price,
			listing_type, property_type, location, details, area_sq_ft, images, amenities, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + propertyColumns

	row := s.Pool.QueryRow(ctx, query,
		p.ID, p.Owner.Email, p.Owner.Name, p.Title, p.Description, p.Price,
		p.ListingType, p.PropertyType, locationJSON, detailsJSON, p.AreaSqFt,
		imagesJSON, amenitiesJSON, p.Status,
	)

	created, err := scanProperty(row.Scan)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("scanning created property: %w", err)
	}

	s.notify("properties", "insert", created.ID)

	return created, nil
}

// GetProperty returns one listing by id.
func (s *PropertyStore) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+propertyColumns+" FROM properties WHERE id = $1", id)

	p, err := scanProperty(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPropertyNotFound
		}

		return nil, fmt.Errorf("querying property: %w", err)
	}

	return p, nil
}

// buildPropertyFilter builds the WHERE clause and args from PropertyFilter.
func buildPropertyFilter(f models.PropertyFilter) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if f.Status != "" {
		conditions = append(conditions, "status = $"+strconv.Itoa(argIdx))
		args = append(args, f.Status)
		argIdx++
	}
	if f.ListingType != "" {
		conditions = append(conditions, "listing_type = $"+strconv.Itoa(argIdx))
		args = append(args, f.ListingType)
		argIdx++
	}
	if f.OwnerEmail != "" {
		conditions = append(conditions, "owner_email = $"+strconv.Itoa(argIdx))
		args = append(args, f.OwnerEmail)
		argIdx++
	}
	if f.MinPrice > 0 {
		conditions = append(conditions, "price >= $"+strconv.Itoa(argIdx))
		args = append(args, f.MinPrice)
		argIdx++
	}
	if f.MaxPrice > 0 {
		conditions = append(conditions, "price <= $"+strconv.Itoa(argIdx))
		args = append(args, f.MaxPrice)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// ListProperties returns listings matching the filter, newest first.
// Returns properties, hasMore flag, and any error.
func (s *PropertyStore) ListProperties(ctx context.Context, f models.PropertyFilter) ([]models.Property, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args, argIdx := buildPropertyFilter(f)

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT %s FROM properties %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		propertyColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, f.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var props []models.Property

	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning property: %w", err)
		}

		props = append(props, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating properties: %w", err)
	}

	hasMore := len(props) > limit
	if hasMore {
		props = props[:limit]
	}

	return props, hasMore, nil
}

// buildPropertyUpdateQuery constructs the SET clause and arguments for
// UpdateProperty. Returns the set clauses, query args, and next argument index.
func buildPropertyUpdateQuery(req models.UpdatePropertyRequest) (setClauses []string, args []any, nextArg int, err error) {
	argIdx := 1

	if req.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *req.Title)
		argIdx++
	}

	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *req.Description)
		argIdx++
	}

	if req.Price != nil {
		setClauses = append(setClauses, fmt.Sprintf("price = $%d", argIdx))
		args = append(args, *req.Price)
		argIdx++
	}

	if req.Location != nil {
		locationJSON, err := json.Marshal(req.Location)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("encoding property location: %w", err)
		}

		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, locationJSON)
		argIdx++
	}

	if req.Images != nil {
		imagesJSON, err := json.Marshal(req.Images)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("encoding property images: %w", err)
		}

		setClauses = append(setClauses, fmt.Sprintf("images = $%d", argIdx))
		args = append(args, imagesJSON)
		argIdx++
	}

	if req.Amenities != nil {
		amenitiesJSON, err := json.Marshal(req.Amenities)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("encoding property amenities: %w", err)
		}

		setClauses = append(setClauses, fmt.Sprintf("amenities = $%d", argIdx))
		args = append(args, amenitiesJSON)
		argIdx++
	}

	return setClauses, args, argIdx, nil
}

// UpdateProperty updates the mutable listing fields and returns the result.
// Status is never written here; the deal coupler and moderation own it.
func (s *PropertyStore) UpdateProperty(ctx context.Context, id string, req models.UpdatePropertyRequest) (*models.Property, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	setClauses, args, argIdx, err := buildPropertyUpdateQuery(req)
	if err != nil {
		return nil, err
	}

	if len(setClauses) == 0 {
		return s.GetProperty(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(
		"UPDATE properties SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIdx, propertyColumns,
	)
	args = append(args, id)

	row := s.Pool.QueryRow(ctx, query, args...)

	p, err := scanProperty(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPropertyNotFound
		}

		return nil, fmt.Errorf("scanning updated property: %w", err)
	}

	s.notify("properties", "update", p.ID)

	return p, nil
}

// UpdatePropertyStatus performs a guarded status change under a row lock.
// The mutate callback receives the current row and returns the property to
// persist; returning an error aborts without writing. Moderation, hide,
// remove, and reopen all go through here so concurrent deal transitions
// cannot interleave with them.
func (s *PropertyStore) UpdatePropertyStatus(
	ctx context.Context,
	id string,
	mutate func(p *models.Property) (*models.Property, error),
) (*models.Property, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	p, err := lockProperty(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	updated, err := mutate(p)
	if err != nil {
		return nil, err
	}

	if err := persistPropertyStatus(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing property status change: %w", err)
	}

	s.notify("properties", "update", updated.ID)

	return updated, nil
}

// lockProperty selects one property row FOR UPDATE inside tx.
func lockProperty(ctx context.Context, tx pgx.Tx, id string) (*models.Property, error) {
	row := tx.QueryRow(ctx, "SELECT "+propertyColumns+" FROM properties WHERE id = $1 FOR UPDATE", id)

	p, err := scanProperty(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPropertyNotFound
		}

		return nil, fmt.Errorf("locking property: %w", err)
	}

	return p, nil
}

// persistPropertyStatus writes the status triple owned by the deal coupler
// and moderation.
func persistPropertyStatus(ctx context.Context, tx pgx.Tx, p *models.Property) error {
	_, err := tx.Exec(ctx, `
		UPDATE properties
		SET status = $2,
			previous_status = NULLIF($3, ''),
			active_application_id = NULLIF($4, ''),
			updated_at = $5
		WHERE id = $1`,
		p.ID, p.Status, string(p.PreviousStatus), p.ActiveApplicationID, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating property status: %w", err)
	}

	return nil
}

// DeleteProperty removes a listing. Applications cascade via FK.
func (s *PropertyStore) DeleteProperty(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, "DELETE FROM properties WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrPropertyNotFound
	}

	s.notify("properties", "delete", id)

	return nil
}
