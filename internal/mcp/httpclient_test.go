package mcp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude/repcycle/internal/catalog"
	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
	"github.com/claude/repcycle/internal/server"
	"github.com/claude/repcycle/internal/storage/memstore"
)

// newRemote starts the REST API over a fresh memstore and returns a client
// pointed at it plus the service for seeding.
func newRemote(t *testing.T, apiKey string) (*HTTPClient, *coach.Service) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	store := memstore.New()
	svc := coach.New(store, cat, periodization.DefaultTuning(), nil, discardLogger())
	ts := httptest.NewServer(server.New(svc, store, apiKey, prometheus.NewRegistry(), discardLogger()))
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL+"/", apiKey), svc
}

// TestHTTPClientRoundTrip verifies the remote client drives the REST API and
// decodes each operation's payload.
func TestHTTPClientRoundTrip(t *testing.T) {
	client, svc := newRemote(t, "k")
	ctx := context.Background()

	tmpl := 1
	created, err := svc.CreateMesocycle(ctx, 1, coach.CreateMesocycleInput{
		TotalWeeks: 4, StartDate: time.Now().UTC(), TemplateID: &tmpl,
	})
	if err != nil {
		t.Fatal(err)
	}

	active, err := client.GetActiveMesocycle(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if active.ID != created.ID || len(active.Sessions) != len(created.Sessions) {
		t.Errorf("active = %s with %d sessions", active.ID, len(active.Sessions))
	}

	landmarks, err := client.ListLandmarks(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(landmarks) == 0 {
		t.Error("no landmarks after creating a mesocycle")
	}

	reps, done := "8,8,8", true
	ex, err := client.LogExercise(ctx, 1, created.Sessions[0].Exercises[0].ID, coach.ExerciseLog{ActualReps: &reps, Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if ex.ActualReps == nil || *ex.ActualReps != "8,8,8" || !ex.IsCompleted {
		t.Errorf("logged exercise = %+v", ex)
	}

	rec, err := client.GetRecommendations(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Mesocycle == nil || rec.Mesocycle.ID != created.ID {
		t.Errorf("recommendations mesocycle = %+v", rec.Mesocycle)
	}

	result, err := client.AdvanceWeek(ctx, 1, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.NewWeek != 2 {
		t.Errorf("new week = %d, want 2", result.NewWeek)
	}

	summary, err := client.MesocycleSummary(ctx, 1, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Weeks) != 2 {
		t.Errorf("summary weeks = %d, want 2", len(summary.Weeks))
	}
}

// TestHTTPClientErrorTaxonomy verifies HTTP error statuses come back as the
// matching sentinel errors.
func TestHTTPClientErrorTaxonomy(t *testing.T) {
	client, _ := newRemote(t, "")
	ctx := context.Background()

	if _, err := client.GetActiveMesocycle(ctx, 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("no active mesocycle err = %v, want ErrNotFound", err)
	}
	if _, err := client.AdvanceWeek(ctx, 1, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown mesocycle err = %v, want ErrNotFound", err)
	}
	if _, err := client.RecordFeedback(ctx, 1, uuid.New(), models.FeedbackInput{}); !errors.Is(err, models.ErrIncompleteInput) {
		t.Errorf("empty feedback err = %v, want ErrIncompleteInput", err)
	}
}

// TestHTTPClientSendsAPIKey verifies mutating calls carry the key and reads do not.
func TestHTTPClientSendsAPIKey(t *testing.T) {
	var seen = map[string]string{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Method] = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "secret")
	if _, err := client.ListLandmarks(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	// The body does not decode into a result; only the request matters here.
	_, _ = client.AdvanceWeek(context.Background(), 1, uuid.New())

	if seen[http.MethodGet] != "" {
		t.Errorf("GET sent key %q", seen[http.MethodGet])
	}
	if seen[http.MethodPost] != "secret" {
		t.Errorf("POST key = %q, want secret", seen[http.MethodPost])
	}
}
