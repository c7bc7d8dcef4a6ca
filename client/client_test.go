package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	byPath := map[string]map[string]http.HandlerFunc{}
	for pattern, handler := range routes {
		method, path, ok := strings.Cut(pattern, " ")
		if !ok {
			t.Fatalf("bad route pattern %q", pattern)
		}
		if byPath[path] == nil {
			byPath[path] = map[string]http.HandlerFunc{}
		}
		byPath[path][method] = handler
	}
	mux := http.NewServeMux()
	for path, handlers := range byPath {
		handlers := handlers
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if h, ok := handlers[r.Method]; ok {
				h(w, r)
				return
			}
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithToken("test-token"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "1.2.0", SchemaVersion: 3})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("got status %q, want ok", resp.Status)
	}
	if resp.SchemaVersion != 3 {
		t.Errorf("got schema version %d, want 3", resp.SchemaVersion)
	}
}

func TestPropertiesLifecycle(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/properties": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("listing_type") != "rent" {
				jsonResponse(w, 400, map[string]string{"code": "invalid_request", "message": "bad filter"})
				return
			}
			jsonResponse(w, 200, map[string]any{"properties": []Property{{ID: "p1", Status: "active"}}, "has_more": true})
		},
		"POST /api/v1/properties": func(w http.ResponseWriter, r *http.Request) {
			var req CreatePropertyRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Property{ID: req.ID, Title: req.Title, Status: "pending"})
		},
		"GET /api/v1/properties/p1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Property{ID: "p1", Title: "Flat in Banani"})
		},
		"PATCH /api/v1/properties/p1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Property{ID: "p1", Title: "Updated"})
		},
		"PATCH /api/v1/properties/p1/moderation": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Property{ID: "p1", Status: "active"})
		},
		"POST /api/v1/properties/p1/reopen": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Property{ID: "p1", Status: "active"})
		},
		"DELETE /api/v1/properties/p1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Property{ID: "p1", Status: "removed"})
		},
	})

	ctx := context.Background()

	props, hasMore, err := c.Properties.List(ctx, &PropertyListOptions{ListingType: "rent"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(props) != 1 || !hasMore {
		t.Errorf("List: got %d properties, hasMore=%v", len(props), hasMore)
	}

	p, err := c.Properties.Create(ctx, &CreatePropertyRequest{ID: "p2", Title: "New flat", Price: 20000})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.Status != "pending" {
		t.Errorf("Create: got status %q, want pending", p.Status)
	}

	if _, err := c.Properties.Get(ctx, "p1"); err != nil {
		t.Fatalf("Get error: %v", err)
	}

	title := "Updated"
	p, err = c.Properties.Update(ctx, "p1", &UpdatePropertyRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if p.Title != "Updated" {
		t.Errorf("Update: got title %q", p.Title)
	}

	p, err = c.Properties.Moderate(ctx, "p1", &ModeratePropertyRequest{Decision: "active"})
	if err != nil {
		t.Fatalf("Moderate error: %v", err)
	}
	if p.Status != "active" {
		t.Errorf("Moderate: got status %q", p.Status)
	}

	if _, err := c.Properties.Reopen(ctx, "p1"); err != nil {
		t.Fatalf("Reopen error: %v", err)
	}

	p, err = c.Properties.Remove(ctx, "p1")
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if p.Status != "removed" {
		t.Errorf("Remove: got status %q", p.Status)
	}
}

func TestApplicationNegotiation(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/applications": func(w http.ResponseWriter, r *http.Request) {
			var req CreateApplicationRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Application{ID: req.ID, PropertyID: req.PropertyID, Status: "pending", ProposedPrice: req.ProposedPrice})
		},
		"PATCH /api/v1/applications/a1": func(w http.ResponseWriter, r *http.Request) {
			var req OwnerActionRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, Application{ID: "a1", Status: req.Status, ProposedPrice: req.ProposedPrice})
		},
		"POST /api/v1/applications/a1/revise": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Application{ID: "a1", Status: "pending", ProposedPrice: 23000})
		},
		"POST /api/v1/applications/a1/accept-counter": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Application{ID: "a1", Status: "deal-in-progress"})
		},
		"PATCH /api/v1/properties/p1/deal": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Application{ID: "a1", Status: "completed"})
		},
	})

	ctx := context.Background()

	app, err := c.Applications.Create(ctx, &CreateApplicationRequest{ID: "a1", PropertyID: "p1", ProposedPrice: 22000})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if app.Status != "pending" {
		t.Errorf("Create: got status %q", app.Status)
	}

	app, err = c.Applications.OwnerAction(ctx, "a1", &OwnerActionRequest{Status: "counter", ProposedPrice: 24000})
	if err != nil {
		t.Fatalf("OwnerAction error: %v", err)
	}
	if app.Status != "counter" || app.ProposedPrice != 24000 {
		t.Errorf("OwnerAction: got %q at %v", app.Status, app.ProposedPrice)
	}

	app, err = c.Applications.Revise(ctx, "a1", &ReviseRequest{ProposedPrice: 23000})
	if err != nil {
		t.Fatalf("Revise error: %v", err)
	}
	if app.ProposedPrice != 23000 {
		t.Errorf("Revise: got price %v", app.ProposedPrice)
	}

	app, err = c.Applications.AcceptCounter(ctx, "a1")
	if err != nil {
		t.Fatalf("AcceptCounter error: %v", err)
	}
	if app.Status != "deal-in-progress" {
		t.Errorf("AcceptCounter: got status %q", app.Status)
	}

	app, err = c.Properties.UpdateDealStatus(ctx, "p1", &DealStatusRequest{DealStatus: "completed"})
	if err != nil {
		t.Fatalf("UpdateDealStatus error: %v", err)
	}
	if app.Status != "completed" {
		t.Errorf("UpdateDealStatus: got status %q", app.Status)
	}
}

func TestApplicationLists(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/applications": func(w http.ResponseWriter, r *http.Request) {
			id := "submitted"
			if r.URL.Query().Get("role") == "received" {
				id = "received"
			}
			jsonResponse(w, 200, map[string]any{"applications": []Application{{ID: id}}})
		},
		"GET /api/v1/properties/p1/applications": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"applications": []Application{{ID: "a1"}, {ID: "a2"}}})
		},
	})

	ctx := context.Background()

	apps, err := c.Applications.ListSubmitted(ctx)
	if err != nil || len(apps) != 1 || apps[0].ID != "submitted" {
		t.Fatalf("ListSubmitted: err=%v, apps=%+v", err, apps)
	}

	apps, err = c.Applications.ListReceived(ctx)
	if err != nil || len(apps) != 1 || apps[0].ID != "received" {
		t.Fatalf("ListReceived: err=%v, apps=%+v", err, apps)
	}

	apps, err = c.Applications.ListForProperty(ctx, "p1")
	if err != nil || len(apps) != 2 {
		t.Fatalf("ListForProperty: err=%v, len=%d", err, len(apps))
	}
}

func TestAudit(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/audit": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"data": []AuditEntry{{ID: 1, Action: "property.create"}}, "has_more": false})
		},
		"DELETE /api/v1/audit": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"deleted": 10, "retention_days": 90})
		},
	})

	ctx := context.Background()

	entries, hasMore, err := c.Audit.Query(ctx, nil)
	if err != nil || len(entries) != 1 || hasMore {
		t.Fatalf("Query: err=%v, len=%d", err, len(entries))
	}

	deleted, err := c.Audit.Purge(ctx, 90)
	if err != nil || deleted != 10 {
		t.Fatalf("Purge: err=%v, deleted=%d", err, deleted)
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/properties/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "property not found"})
		},
		"PATCH /api/v1/applications/a1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 409, map[string]string{"code": "conflict", "message": "terminal_state"})
		},
		"POST /api/v1/applications/a1/withdraw": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 403, map[string]string{"code": "forbidden", "message": "unauthorized"})
		},
	})

	ctx := context.Background()

	_, err := c.Properties.Get(ctx, "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}

	_, err = c.Applications.OwnerAction(ctx, "a1", &OwnerActionRequest{Status: "rejected"})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got: %v", err)
	}

	_, err = c.Applications.Withdraw(ctx, "a1")
	if !IsForbidden(err) {
		t.Errorf("expected forbidden, got: %v", err)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-token")
	}
}
