package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingTitle        = errors.New("title is required")
	ErrMissingAddress      = errors.New("location address is required")
	ErrMissingPropertyID   = errors.New("property id is required")
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidListingType  = errors.New("listing_type must be rent or sale")
	ErrInvalidPropertyType = errors.New("property_type must be flat or building")
	ErrInvalidModeration   = errors.New("decision must be active or rejected")
	ErrInvalidOwnerAction  = errors.New("status must be deal-in-progress, rejected, or counter")
	ErrInvalidDealStatus   = errors.New("deal_status must be completed or cancelled")
)

// Sentinel errors for entity lookups.
var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNoActiveDeal        = errors.New("property has no active deal")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrForbidden indicates the caller is not allowed to act on the entity
// (maps to HTTP 403 Forbidden).
var ErrForbidden = errors.New("forbidden")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum size.
func ErrFieldTooLong(field string, max int) error {
	return fmt.Errorf("%s exceeds maximum of %d", field, max)
}
