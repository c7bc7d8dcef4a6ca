package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ghorbari/ghorbari/internal/api"
	"github.com/ghorbari/ghorbari/internal/models"
)

func TestAuditQuery_OK(t *testing.T) {
	t.Parallel()

	svc := &mockAuditService{
		queryFn: func(_ context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
			if opts.Action != "property.create" {
				t.Errorf("action filter = %q, want property.create", opts.Action)
			}
			return []models.AuditEntry{{ID: 1, Action: "property.create"}}, false, nil
		},
	}

	r := newTestRouter(ownerPrincipal())
	h := api.NewAuditHandler(svc, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?action=property.create", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []models.AuditEntry `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("got %d entries, want 1", len(resp.Data))
	}
}

func TestAuditQuery_BadSince(t *testing.T) {
	t.Parallel()

	r := newTestRouter(ownerPrincipal())
	h := api.NewAuditHandler(&mockAuditService{}, testLogger())
	r.GET("/audit", h.Query)

	w := doRequest(r, http.MethodGet, "/audit?since=yesterday", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuditPurge_OK(t *testing.T) {
	t.Parallel()

	svc := &mockAuditService{
		purgeFn: func(_ context.Context, retentionDays int) (int, error) {
			if retentionDays != 30 {
				t.Errorf("retention = %d, want 30", retentionDays)
			}
			return 12, nil
		},
	}

	r := newTestRouter(ownerPrincipal())
	h := api.NewAuditHandler(svc, testLogger())
	r.DELETE("/audit", h.Purge)

	w := doRequest(r, http.MethodDelete, "/audit?retention_days=30", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
