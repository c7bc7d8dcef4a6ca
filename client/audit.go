package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AuditService queries and maintains the audit log (admin only).
type AuditService struct {
	c *Client
}

// auditQueryResponse wraps the paginated audit query response.
type auditQueryResponse struct {
	Data    []AuditEntry `json:"data"`
	HasMore bool         `json:"has_more"`
}

// values maps the options onto query parameters, skipping zero values.
func (opts *AuditQueryOptions) values() url.Values {
	params := url.Values{}
	if opts == nil {
		return params
	}

	if opts.EntityType != "" {
		params.Set("entity_type", opts.EntityType)
	}
	if opts.EntityID != "" {
		params.Set("entity_id", opts.EntityID)
	}
	if opts.Action != "" {
		params.Set("action", opts.Action)
	}
	if opts.Since != nil {
		params.Set("since", opts.Since.Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	return params
}

// Query returns audit entries matching opts, newest first, plus a flag
// telling whether more pages remain.
func (s *AuditService) Query(ctx context.Context, opts *AuditQueryOptions) ([]AuditEntry, bool, error) {
	var resp auditQueryResponse
	if err := s.c.get(ctx, "/api/v1/audit", opts.values(), &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Purge deletes audit entries older than retentionDays and returns the count.
func (s *AuditService) Purge(ctx context.Context, retentionDays int) (int, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := s.c.del(ctx, "/api/v1/audit", params, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
