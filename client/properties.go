package client

import (
	"context"
	"net/url"
	"strconv"
)

// PropertyService handles property listing operations.
type PropertyService struct {
	c *Client
}

// propertyListResponse wraps the paginated property list response.
type propertyListResponse struct {
	Properties []Property `json:"properties"`
	HasMore    bool       `json:"has_more"`
}

// List returns listings with optional filtering and pagination.
func (s *PropertyService) List(ctx context.Context, opts *PropertyListOptions) ([]Property, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.ListingType != "" {
			params.Set("listing_type", opts.ListingType)
		}
		if opts.Owner != "" {
			params.Set("owner", opts.Owner)
		}
		if opts.MinPrice > 0 {
			params.Set("min_price", strconv.FormatFloat(opts.MinPrice, 'f', -1, 64))
		}
		if opts.MaxPrice > 0 {
			params.Set("max_price", strconv.FormatFloat(opts.MaxPrice, 'f', -1, 64))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp propertyListResponse
	if err := s.c.get(ctx, "/api/v1/properties", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Properties, resp.HasMore, nil
}

// Get returns a single listing by ID.
func (s *PropertyService) Get(ctx context.Context, id string) (*Property, error) {
	var p Property
	if err := s.c.get(ctx, "/api/v1/properties/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create submits a new listing; it starts in pending status until moderated.
func (s *PropertyService) Create(ctx context.Context, req *CreatePropertyRequest) (*Property, error) {
	var p Property
	if err := s.c.post(ctx, "/api/v1/properties", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update edits the mutable fields of a listing the caller owns.
func (s *PropertyService) Update(ctx context.Context, id string, req *UpdatePropertyRequest) (*Property, error) {
	var p Property
	if err := s.c.patch(ctx, "/api/v1/properties/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Moderate applies an admin decision to a pending listing.
func (s *PropertyService) Moderate(ctx context.Context, id string, req *ModeratePropertyRequest) (*Property, error) {
	var p Property
	if err := s.c.patch(ctx, "/api/v1/properties/"+url.PathEscape(id)+"/moderation", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetHidden toggles listing visibility.
func (s *PropertyService) SetHidden(ctx context.Context, id string, hidden bool) (*Property, error) {
	var p Property
	body := map[string]bool{"hidden": hidden}
	if err := s.c.patch(ctx, "/api/v1/properties/"+url.PathEscape(id)+"/visibility", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Remove takes a listing off the marketplace.
func (s *PropertyService) Remove(ctx context.Context, id string) (*Property, error) {
	var p Property
	if err := s.c.del(ctx, "/api/v1/properties/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Reopen returns a rented rent listing to active.
func (s *PropertyService) Reopen(ctx context.Context, id string) (*Property, error) {
	var p Property
	if err := s.c.post(ctx, "/api/v1/properties/"+url.PathEscape(id)+"/reopen", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateDealStatus completes or cancels the deal on a property.
func (s *PropertyService) UpdateDealStatus(ctx context.Context, id string, req *DealStatusRequest) (*Application, error) {
	var a Application
	if err := s.c.patch(ctx, "/api/v1/properties/"+url.PathEscape(id)+"/deal", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
