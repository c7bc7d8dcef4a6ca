package models

import (
	"encoding/json"
	"fmt"
)

// PropertyStatus is the moderation/deal status of a property listing.
type PropertyStatus string

// Property statuses.
const (
	PropertyPending        PropertyStatus = "pending"
	PropertyActive         PropertyStatus = "active"
	PropertyHidden         PropertyStatus = "hidden"
	PropertyRejected       PropertyStatus = "rejected"
	PropertyRemoved        PropertyStatus = "removed"
	PropertyDealInProgress PropertyStatus = "deal-in-progress"
	PropertyRented         PropertyStatus = "rented"
	PropertySold           PropertyStatus = "sold"
)

// ValidPropertyStatus reports whether s is a known property status.
func ValidPropertyStatus(s PropertyStatus) bool {
	switch s {
	case PropertyPending, PropertyActive, PropertyHidden, PropertyRejected,
		PropertyRemoved, PropertyDealInProgress, PropertyRented, PropertySold:
		return true
	}
	return false
}

// ApplicationStatus is the negotiation state of an application.
type ApplicationStatus string

// Application statuses. The canonical in-deal value is ApplicationDealInProgress;
// "accepted" is a legacy alias found in older stored documents and is
// normalized on read, never written.
const (
	ApplicationPending        ApplicationStatus = "pending"
	ApplicationCounter        ApplicationStatus = "counter"
	ApplicationDealInProgress ApplicationStatus = "deal-in-progress"
	ApplicationCompleted      ApplicationStatus = "completed"
	ApplicationRejected       ApplicationStatus = "rejected"
	ApplicationWithdrawn      ApplicationStatus = "withdrawn"
	ApplicationCancelled      ApplicationStatus = "cancelled"

	legacyAccepted = "accepted"
)

// NormalizeApplicationStatus maps the legacy "accepted" alias to
// deal-in-progress. All read boundaries (JSON decode, row scan) go through
// this so the alias never escapes into engine logic or new writes.
func NormalizeApplicationStatus(s string) ApplicationStatus {
	if s == legacyAccepted {
		return ApplicationDealInProgress
	}
	return ApplicationStatus(s)
}

// ValidApplicationStatus reports whether s is a known (canonical) application status.
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationPending, ApplicationCounter, ApplicationDealInProgress,
		ApplicationCompleted, ApplicationRejected, ApplicationWithdrawn, ApplicationCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case ApplicationCompleted, ApplicationRejected, ApplicationWithdrawn, ApplicationCancelled:
		return true
	}
	return false
}

// Blocking reports whether an application in this state prevents the same
// seeker from filing another application for the same property.
func (s ApplicationStatus) Blocking() bool {
	switch s {
	case ApplicationPending, ApplicationCounter, ApplicationDealInProgress, ApplicationCompleted:
		return true
	}
	return false
}

// UnmarshalJSON normalizes the legacy "accepted" alias while decoding.
func (s *ApplicationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("application status: %w", err)
	}

	*s = NormalizeApplicationStatus(raw)

	return nil
}

// ListingType distinguishes rental listings from sale listings.
type ListingType string

// Listing types.
const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
)

// ValidListingType reports whether t is a known listing type.
func ValidListingType(t ListingType) bool {
	return t == ListingRent || t == ListingSale
}

// PropertyType is the physical shape variant of a listing.
type PropertyType string

// Property types.
const (
	PropertyFlat     PropertyType = "flat"
	PropertyBuilding PropertyType = "building"
)

// ValidPropertyType reports whether t is a known property type.
func ValidPropertyType(t PropertyType) bool {
	return t == PropertyFlat || t == PropertyBuilding
}

// Party identifies which side of a negotiation performed an action.
type Party string

// Parties.
const (
	PartySeeker Party = "seeker"
	PartyOwner  Party = "owner"
	PartyAdmin  Party = "admin"
	PartySystem Party = "system"
)

// Role is the marketplace role carried by an authenticated principal.
type Role string

// Roles.
const (
	RoleSeeker Role = "seeker"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller, resolved by the auth middleware
// from an externally-issued bearer token. Engine calls receive it
// explicitly; nothing reads it from ambient state.
type Principal struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}
