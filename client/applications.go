package client

import (
	"context"
	"net/url"
)

// ApplicationService handles negotiation operations.
type ApplicationService struct {
	c *Client
}

// applicationListResponse wraps application list responses.
type applicationListResponse struct {
	Applications []Application `json:"applications"`
}

// Create submits an offer on a property.
func (s *ApplicationService) Create(ctx context.Context, req *CreateApplicationRequest) (*Application, error) {
	var a Application
	if err := s.c.post(ctx, "/api/v1/applications", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns a single application by ID.
func (s *ApplicationService) Get(ctx context.Context, id string) (*Application, error) {
	var a Application
	if err := s.c.get(ctx, "/api/v1/applications/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListSubmitted returns the caller's own applications.
func (s *ApplicationService) ListSubmitted(ctx context.Context) ([]Application, error) {
	var resp applicationListResponse
	if err := s.c.get(ctx, "/api/v1/applications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Applications, nil
}

// ListReceived returns applications against the caller's listings.
func (s *ApplicationService) ListReceived(ctx context.Context) ([]Application, error) {
	params := url.Values{}
	params.Set("role", "received")
	var resp applicationListResponse
	if err := s.c.get(ctx, "/api/v1/applications", params, &resp); err != nil {
		return nil, err
	}
	return resp.Applications, nil
}

// ListForProperty returns every application on a property (owner or admin).
func (s *ApplicationService) ListForProperty(ctx context.Context, propertyID string) ([]Application, error) {
	var resp applicationListResponse
	if err := s.c.get(ctx, "/api/v1/properties/"+url.PathEscape(propertyID)+"/applications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Applications, nil
}

// OwnerAction applies the owner's decision: accept, reject, or counter.
func (s *ApplicationService) OwnerAction(ctx context.Context, id string, req *OwnerActionRequest) (*Application, error) {
	var a Application
	if err := s.c.patch(ctx, "/api/v1/applications/"+url.PathEscape(id), req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Withdraw retires the caller's own pending or countered application.
func (s *ApplicationService) Withdraw(ctx context.Context, id string) (*Application, error) {
	var a Application
	if err := s.c.post(ctx, "/api/v1/applications/"+url.PathEscape(id)+"/withdraw", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Revise replaces the caller's offer after an owner counter.
func (s *ApplicationService) Revise(ctx context.Context, id string, req *ReviseRequest) (*Application, error) {
	var a Application
	if err := s.c.post(ctx, "/api/v1/applications/"+url.PathEscape(id)+"/revise", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AcceptCounter accepts the owner's counter offer.
func (s *ApplicationService) AcceptCounter(ctx context.Context, id string) (*Application, error) {
	var a Application
	if err := s.c.post(ctx, "/api/v1/applications/"+url.PathEscape(id)+"/accept-counter", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
