package store

import (
	"encoding/json"
	"fmt"

	"github.com/ghorbari/ghorbari/internal/models"
)

// Column lists shared by INSERT ... RETURNING and SELECT statements so
// every scanner sees the same shape.
const (
	propertyColumns = `id, owner_email, owner_name, title, description, price,
		listing_type, property_type, location, details, area_sq_ft, images,
		amenities, status, previous_status, active_application_id, created_at, updated_at`

	applicationColumns = `id, property_id, owner_email, seeker_email, seeker_name,
		status, original_listing_price, proposed_price, final_price, message,
		price_history, messages, status_history, created_at, updated_at,
		last_action_at, last_action_by`
)

// scanFunc matches both pgx.Row.Scan and pgx.Rows.Scan.
type scanFunc func(dest ...any) error

// scanProperty scans one property row. JSONB columns decode into the
// nested document fields.
func scanProperty(scan scanFunc) (*models.Property, error) {
	var (
		p                             models.Property
		description                   *string
		locationJSON, detailsJSON     []byte
		imagesJSON, amenitiesJSON     []byte
		previousStatus, activeAppID   *string
	)

	err := scan(
		&p.ID, &p.Owner.Email, &p.Owner.Name, &p.Title, &description, &p.Price,
		&p.ListingType, &p.PropertyType, &locationJSON, &detailsJSON, &p.AreaSqFt,
		&imagesJSON, &amenitiesJSON, &p.Status, &previousStatus, &activeAppID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		p.Description = *description
	}
	if previousStatus != nil {
		p.PreviousStatus = models.PropertyStatus(*previousStatus)
	}
	if activeAppID != nil {
		p.ActiveApplicationID = *activeAppID
	}

	if err := json.Unmarshal(locationJSON, &p.Location); err != nil {
		return nil, fmt.Errorf("decoding property location: %w", err)
	}
	if err := json.Unmarshal(detailsJSON, &p.Details); err != nil {
		return nil, fmt.Errorf("decoding property details: %w", err)
	}
	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("decoding property images: %w", err)
		}
	}
	if amenitiesJSON != nil {
		if err := json.Unmarshal(amenitiesJSON, &p.Amenities); err != nil {
			return nil, fmt.Errorf("decoding property amenities: %w", err)
		}
	}

	return &p, nil
}

// scanApplication scans one application row. The status column goes
// through NormalizeApplicationStatus so the legacy "accepted" alias never
// reaches callers.
func scanApplication(scan scanFunc) (*models.Application, error) {
	var (
		a            models.Application
		status       string
		message      *string
		lastActionBy *string
		historyJSON  []byte
		messagesJSON []byte
		statusJSON   []byte
	)

	err := scan(
		&a.ID, &a.PropertyID, &a.Owner.Email, &a.Seeker.Email, &a.Seeker.Name,
		&status, &a.OriginalListingPrice, &a.ProposedPrice, &a.FinalPrice, &message,
		&historyJSON, &messagesJSON, &statusJSON, &a.CreatedAt, &a.UpdatedAt,
		&a.LastActionAt, &lastActionBy,
	)
	if err != nil {
		return nil, err
	}

	a.Status = models.NormalizeApplicationStatus(status)
	if message != nil {
		a.Message = *message
	}
	if lastActionBy != nil {
		a.LastActionBy = models.Party(*lastActionBy)
	}

	if err := json.Unmarshal(historyJSON, &a.PriceHistory); err != nil {
		return nil, fmt.Errorf("decoding price history: %w", err)
	}
	if messagesJSON != nil {
		if err := json.Unmarshal(messagesJSON, &a.Messages); err != nil {
			return nil, fmt.Errorf("decoding messages: %w", err)
		}
	}
	if err := json.Unmarshal(statusJSON, &a.StatusHistory); err != nil {
		return nil, fmt.Errorf("decoding status history: %w", err)
	}

	return &a, nil
}

// applicationDocArgs encodes the nested application documents for
// INSERT/UPDATE argument lists, in the order price_history, messages,
// status_history.
func applicationDocArgs(a *models.Application) (historyJSON, messagesJSON, statusJSON []byte, err error) {
	historyJSON, err = json.Marshal(a.PriceHistory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding price history: %w", err)
	}

	messagesJSON, err = json.Marshal(a.Messages)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding messages: %w", err)
	}

	statusJSON, err = json.Marshal(a.StatusHistory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encoding status history: %w", err)
	}

	return historyJSON, messagesJSON, statusJSON, nil
}
