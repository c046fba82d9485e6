package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/database/mock"
)

type fakeProvider struct {
	status PipelineStatus
}

func (f *fakeProvider) Status() PipelineStatus {
	return f.status
}

func TestStats_CountsByWindow(t *testing.T) {
	store := mock.NewStore()
	now := time.Now()
	events := []database.AttendanceEvent{
		{EventType: database.EventEntry, IdentityID: "s-001", CreatedAt: now.Add(-time.Hour)},
		{EventType: database.EventEntry, IsSpoof: true, CreatedAt: now.Add(-2 * time.Hour)},
		{EventType: database.EventEntry, CreatedAt: now.Add(-3 * time.Hour)},
		{EventType: database.EventEntry, IdentityID: "s-002", CreatedAt: now.Add(-48 * time.Hour)},
	}
	for _, e := range events {
		if err := store.InsertEvent(context.Background(), e); err != nil {
			t.Fatalf("could not seed event: %v", err)
		}
	}
	handler := NewStatsHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Counts database.EventCounts `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.Counts.Granted != 1 || resp.Counts.Proxy != 1 || resp.Counts.Intruder != 1 {
		t.Errorf("expected counts 1/1/1 inside 24h window, got %+v", resp.Counts)
	}
}

func TestStats_InvalidHours(t *testing.T) {
	handler := NewStatsHandler(mock.NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats?hours=-2", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestStats_IncludesPipelineSnapshot(t *testing.T) {
	provider := &fakeProvider{status: PipelineStatus{
		CameraID:  "gate-1",
		EventType: "entry",
		State:     "ANALYZING",
		Running:   true,
	}}
	handler := NewStatsHandler(mock.NewStore(), provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	var resp struct {
		Pipeline *PipelineStatus `json:"pipeline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.Pipeline == nil {
		t.Fatal("expected pipeline snapshot in response")
	}
	if resp.Pipeline.State != "ANALYZING" || !resp.Pipeline.Running {
		t.Errorf("unexpected pipeline snapshot: %+v", resp.Pipeline)
	}
}

func TestStats_OmitsPipelineWithoutProvider(t *testing.T) {
	handler := NewStatsHandler(mock.NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if _, ok := raw["pipeline"]; ok {
		t.Error("expected no pipeline key without a provider")
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}
