package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNormalizeApplicationStatus(t *testing.T) {
	if got := NormalizeApplicationStatus("accepted"); got != ApplicationDealInProgress {
		t.Errorf("accepted normalized to %q, want deal-in-progress", got)
	}
	if got := NormalizeApplicationStatus("pending"); got != ApplicationPending {
		t.Errorf("pending normalized to %q", got)
	}
}

func TestApplicationStatusUnmarshalNormalizesAlias(t *testing.T) {
	var app Application
	payload := `{"id":"a1","status":"accepted","status_history":[{"status":"accepted","changed_by":"owner"}]}`

	if err := json.Unmarshal([]byte(payload), &app); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if app.Status != ApplicationDealInProgress {
		t.Errorf("status = %q, want deal-in-progress", app.Status)
	}
	if app.StatusHistory[0].Status != ApplicationDealInProgress {
		t.Errorf("history status = %q, want deal-in-progress", app.StatusHistory[0].Status)
	}
}

func TestApplicationStatusPredicates(t *testing.T) {
	terminal := map[ApplicationStatus]bool{
		ApplicationPending:        false,
		ApplicationCounter:        false,
		ApplicationDealInProgress: false,
		ApplicationCompleted:      true,
		ApplicationRejected:       true,
		ApplicationWithdrawn:      true,
		ApplicationCancelled:      true,
	}
	blocking := map[ApplicationStatus]bool{
		ApplicationPending:        true,
		ApplicationCounter:        true,
		ApplicationDealInProgress: true,
		ApplicationCompleted:      true,
		ApplicationRejected:       false,
		ApplicationWithdrawn:      false,
		ApplicationCancelled:      false,
	}

	for s, want := range terminal {
		if s.Terminal() != want {
			t.Errorf("%q.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
	for s, want := range blocking {
		if s.Blocking() != want {
			t.Errorf("%q.Blocking() = %v, want %v", s, s.Blocking(), want)
		}
	}
}

func TestPriceHistoryLedger(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	var h PriceHistory
	h = h.Append(9000, PartySeeker, "seeker@example.com", "Initial offer", t0)
	h = h.Append(9500, PartyOwner, "owner@example.com", "Owner counter offer", t0.Add(time.Minute))
	h = h.Append(9200, PartySeeker, "seeker@example.com", "Seeker revised offer", t0.Add(2*time.Minute))

	cur, ok := h.Current()
	if !ok || cur.Price != 9200 {
		t.Errorf("Current() = %+v, want 9200", cur)
	}

	bySeeker, ok := h.LatestBy(PartySeeker)
	if !ok || bySeeker.Price != 9200 {
		t.Errorf("LatestBy(seeker) = %+v, want 9200", bySeeker)
	}
	byOwner, ok := h.LatestBy(PartyOwner)
	if !ok || byOwner.Price != 9500 {
		t.Errorf("LatestBy(owner) = %+v, want 9500", byOwner)
	}
	if _, ok := h.LatestBy(PartyAdmin); ok {
		t.Error("LatestBy(admin) should not find an entry")
	}

	if _, ok := (PriceHistory{}).Current(); ok {
		t.Error("Current() of empty history should report false")
	}
}

func TestApplicationClone(t *testing.T) {
	fp := 9500.0
	app := Application{
		ID:           "a1",
		Status:       ApplicationDealInProgress,
		FinalPrice:   &fp,
		PriceHistory: PriceHistory{{Price: 9000, SetBy: PartySeeker}},
		StatusHistory: []StatusChange{
			{Status: ApplicationPending, ChangedBy: PartySeeker},
		},
	}

	cp := app.Clone()
	cp.PriceHistory = cp.PriceHistory.Append(9500, PartyOwner, "", "", time.Now())
	cp.StatusHistory = append(cp.StatusHistory, StatusChange{Status: ApplicationCounter})
	*cp.FinalPrice = 1

	if len(app.PriceHistory) != 1 || len(app.StatusHistory) != 1 {
		t.Error("clone shares history slices with the original")
	}
	if *app.FinalPrice != 9500 {
		t.Error("clone shares FinalPrice pointer with the original")
	}
}

func TestCreatePropertyRequestValidate(t *testing.T) {
	valid := func() CreatePropertyRequest {
		return CreatePropertyRequest{
			Title:        "Two-room flat",
			Price:        12000,
			ListingType:  ListingRent,
			PropertyType: PropertyFlat,
			Location:     Location{Address: "Mirpur, Dhaka"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CreatePropertyRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(r *CreatePropertyRequest) {}},
		{name: "missing title", mutate: func(r *CreatePropertyRequest) { r.Title = "" }, wantErr: ErrMissingTitle},
		{name: "zero price", mutate: func(r *CreatePropertyRequest) { r.Price = 0 }, wantErr: ErrInvalidPrice},
		{name: "bad listing type", mutate: func(r *CreatePropertyRequest) { r.ListingType = "lease" }, wantErr: ErrInvalidListingType},
		{name: "bad property type", mutate: func(r *CreatePropertyRequest) { r.PropertyType = "castle" }, wantErr: ErrInvalidPropertyType},
		{name: "missing address", mutate: func(r *CreatePropertyRequest) { r.Location.Address = "" }, wantErr: ErrMissingAddress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)

			err := req.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.ID == "" {
					t.Error("Validate should auto-generate an ID")
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestOwnerActionRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     OwnerActionRequest
		wantErr error
	}{
		{name: "accept", req: OwnerActionRequest{Status: ApplicationDealInProgress}},
		{name: "reject", req: OwnerActionRequest{Status: ApplicationRejected}},
		{name: "counter with price", req: OwnerActionRequest{Status: ApplicationCounter, ProposedPrice: 9500}},
		{name: "counter without price", req: OwnerActionRequest{Status: ApplicationCounter}, wantErr: ErrInvalidPrice},
		{name: "completed is not an owner action", req: OwnerActionRequest{Status: ApplicationCompleted}, wantErr: ErrInvalidOwnerAction},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestDealStatusRequestValidate(t *testing.T) {
	if err := (&DealStatusRequest{DealStatus: ApplicationCompleted}).Validate(); err != nil {
		t.Errorf("completed: %v", err)
	}
	if err := (&DealStatusRequest{DealStatus: ApplicationCancelled}).Validate(); err != nil {
		t.Errorf("cancelled: %v", err)
	}
	if err := (&DealStatusRequest{DealStatus: ApplicationPending}).Validate(); !errors.Is(err, ErrInvalidDealStatus) {
		t.Errorf("pending: error = %v, want ErrInvalidDealStatus", err)
	}
}
