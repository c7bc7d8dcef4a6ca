package client

import "time"

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
type UnitDetails struct {
	RoomCount  *int `json:"room_count,omitempty"`
	Bathrooms  *int `json:"bathrooms,omitempty"`
	FloorCount *int `json:"floor_count,omitempty"`
	TotalUnits *int `json:"total_units,omitempty"`
}

// Property is a rental or sale listing.
type Property struct {
	ID                  string      `json:"id"`
	Owner               UserRef     `json:"owner"`
	Title               string      `json:"title"`
	Description         string      `json:"description,omitempty"`
	Price               float64     `json:"price"`
	ListingType         string      `json:"listing_type"`
	PropertyType        string      `json:"property_type"`
	Location            Location    `json:"location"`
	Details             UnitDetails `json:"details"`
	AreaSqFt            *float64    `json:"area_sq_ft,omitempty"`
	Images              []string    `json:"images,omitempty"`
	Amenities           []string    `json:"amenities,omitempty"`
	Status              string      `json:"status"`
	PreviousStatus      string      `json:"previous_status,omitempty"`
	ActiveApplicationID string      `json:"active_application_id,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// PriceEntry is one offer in an application's price history.
type PriceEntry struct {
	Price     float64   `json:"price"`
	SetBy     string    `json:"set_by"`
	SetByMail string    `json:"set_by_email,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is one entry in the per-application message log.
type Message struct {
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Text        string    `json:"text"`
	LinkedPrice *float64  `json:"linked_price,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// StatusChange is one entry in the application's status history.
type StatusChange struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Email     string    `json:"changed_by_email,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Application is one seeker's offer against one property.
type Application struct {
	ID                   string         `json:"id"`
	PropertyID           string         `json:"property_id"`
	Owner                UserRef        `json:"owner"`
	Seeker               UserRef        `json:"seeker"`
	Status               string         `json:"status"`
	OriginalListingPrice float64        `json:"original_listing_price"`
	ProposedPrice        float64        `json:"proposed_price"`
	FinalPrice           *float64       `json:"final_price,omitempty"`
	Message              string         `json:"message,omitempty"`
	PriceHistory         []PriceEntry   `json:"price_history"`
	Messages             []Message      `json:"messages,omitempty"`
	StatusHistory        []StatusChange `json:"status_history"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	LastActionAt         time.Time      `json:"last_action_at"`
	LastActionBy         string         `json:"last_action_by,omitempty"`

	// LastSeekerPrice is the seeker's most recent self-submitted price,
	// only set on single-application reads. After an owner counter it
	// differs from ProposedPrice and pre-fills the revise form.
	LastSeekerPrice *float64 `json:"last_seeker_price,omitempty"`
}

// CreatePropertyRequest is the payload for submitting a new listing.
type CreatePropertyRequest struct {
	ID           string      `json:"id,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Price        float64     `json:"price"`
	ListingType  string      `json:"listing_type"`
	PropertyType string      `json:"property_type"`
	Location     Location    `json:"location"`
	Details      UnitDetails `json:"details"`
	AreaSqFt     *float64    `json:"area_sq_ft,omitempty"`
	Images       []string    `json:"images,omitempty"`
	Amenities    []string    `json:"amenities,omitempty"`
}

// UpdatePropertyRequest is the payload for editing a listing.
type UpdatePropertyRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Amenities   []string  `json:"amenities,omitempty"`
}

// ModeratePropertyRequest is the payload for an admin moderation decision.
type ModeratePropertyRequest struct {
	Decision string `json:"decision"` // active or rejected
	Note     string `json:"note,omitempty"`
}

// CreateApplicationRequest is the payload for a seeker submitting an offer.
type CreateApplicationRequest struct {
	ID            string  `json:"id,omitempty"`
	PropertyID    string  `json:"property_id"`
	ProposedPrice float64 `json:"proposed_price"`
	Message       string  `json:"message,omitempty"`
}

// OwnerActionRequest is the payload for the owner acting on an application.
type OwnerActionRequest struct {
	Status        string  `json:"status"` // deal-in-progress, rejected, or counter
	ProposedPrice float64 `json:"proposed_price,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// ReviseRequest is the payload for a seeker revising their offer.
type ReviseRequest struct {
	ProposedPrice float64 `json:"proposed_price"`
	Message       string  `json:"message,omitempty"`
}

// DealStatusRequest is the payload for finalizing or cancelling a deal.
type DealStatusRequest struct {
	DealStatus string `json:"deal_status"` // completed or cancelled
}

// PropertyListOptions filters property listing queries.
type PropertyListOptions struct {
	Status      string
	ListingType string
	Owner       string
	MinPrice    float64
	MaxPrice    float64
	Limit       int
	Offset      int
}

// AuditQueryOptions filters audit log queries.
type AuditQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// AuditEntry is one audit log record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
