// Package models defines the document types for the GhorBari marketplace.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRef is an embedded reference to a marketplace user.
type UserRef struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Location is a free-text address with optional coordinates.
type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// UnitDetails holds the shape-dependent unit counts of a listing.
// Flats carry room/bathroom counts; buildings carry floor/unit counts.
type UnitDetails struct {
	RoomCount  *int `json:"room_count,omitempty"`
	Bathrooms  *int `json:"bathrooms,omitempty"`
	FloorCount *int `json:"floor_count,omitempty"`
	TotalUnits *int `json:"total_units,omitempty"`
}

// Property is a rental or sale listing.
//
// Status and PreviousStatus are written only through the negotiation
// coupler and the moderation service; PreviousStatus remembers the status a
// property held immediately before entering deal-in-progress so a cancelled
// deal can restore it.
type Property struct {
	ID                  string         `json:"id"`
	Owner               UserRef        `json:"owner"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Price               float64        `json:"price"`
	ListingType         ListingType    `json:"listing_type"`
	PropertyType        PropertyType   `json:"property_type"`
	Location            Location       `json:"location"`
	Details             UnitDetails    `json:"details"`
	AreaSqFt            *float64       `json:"area_sq_ft,omitempty"`
	Images              []string       `json:"images,omitempty"`
	Amenities           []string       `json:"amenities,omitempty"`
	Status              PropertyStatus `json:"status"`
	PreviousStatus      PropertyStatus `json:"previous_status,omitempty"`
	ActiveApplicationID string         `json:"active_application_id,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the property.
func (p *Property) Clone() Property {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.Amenities = append([]string(nil), p.Amenities...)
	return cp
}

// CreatePropertyRequest is the payload for submitting a new listing.
// Listings start in pending and become visible after admin approval.
type CreatePropertyRequest struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	ListingType  ListingType  `json:"listing_type"`
	PropertyType PropertyType `json:"property_type"`
	Location     Location     `json:"location"`
	Details      UnitDetails  `json:"details"`
	AreaSqFt     *float64     `json:"area_sq_ft,omitempty"`
	Images       []string     `json:"images,omitempty"`
	Amenities    []string     `json:"amenities,omitempty"`
}

// Validate checks required fields on CreatePropertyRequest.
// If ID is empty, a UUID is auto-generated.
func (r *CreatePropertyRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	if r.Title == "" {
		return ErrMissingTitle
	}

	if len(r.Title) > 200 {
		return ErrFieldTooLong("title", 200)
	}

	if len(r.Description) > 10000 {
		return ErrFieldTooLong("description", 10000)
	}

	if r.Price <= 0 {
		return ErrInvalidPrice
	}

	if !ValidListingType(r.ListingType) {
		return ErrInvalidListingType
	}

	if !ValidPropertyType(r.PropertyType) {
		return ErrInvalidPropertyType
	}

	if r.Location.Address == "" {
		return ErrMissingAddress
	}

	if len(r.Images) > 20 {
		return ErrFieldTooLong("images", 20)
	}

	return nil
}

// UpdatePropertyRequest is the payload for an owner editing a listing.
// Only mutable listing fields are included; status is never edited here.
type UpdatePropertyRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Amenities   []string  `json:"amenities,omitempty"`
}

// Validate checks UpdatePropertyRequest fields.
func (r *UpdatePropertyRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return ErrMissingTitle
	}

	if r.Title != nil && len(*r.Title) > 200 {
		return ErrFieldTooLong("title", 200)
	}

	if r.Description != nil && len(*r.Description) > 10000 {
		return ErrFieldTooLong("description", 10000)
	}

	if r.Price != nil && *r.Price <= 0 {
		return ErrInvalidPrice
	}

	if r.Location != nil && r.Location.Address == "" {
		return ErrMissingAddress
	}

	return nil
}

// ModeratePropertyRequest is the payload for an admin moderation decision
// on a pending listing.
type ModeratePropertyRequest struct {
	Decision PropertyStatus `json:"decision"` // active or rejected
	Note     string         `json:"note,omitempty"`
}

// Validate checks that the moderation decision is one of the two permitted outcomes.
func (r *ModeratePropertyRequest) Validate() error {
	if r.Decision != PropertyActive && r.Decision != PropertyRejected {
		return ErrInvalidModeration
	}
	return nil
}

// PropertyFilter narrows property listing queries.
type PropertyFilter struct {
	Status      PropertyStatus
	ListingType ListingType
	OwnerEmail  string
	MinPrice    float64
	MaxPrice    float64
	Limit       int
	Offset      int
}
