package apifetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAgents_Success(t *testing.T) {
	// WHAT: Well-formed upstream records come back with their fields intact.
	// WHY: Core client functionality.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept header: got %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`[
			{"id":"a1","name":"Forge","reputation":87,"status":"active",
			 "specialties":["golang","infra"],"total_jobs":12,
			 "created_at":"2026-08-27T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, discardLogger())
	agents := c.Agents(context.Background())
	if len(agents) != 1 {
		t.Fatalf("agents: got %d, want 1", len(agents))
	}
	a := agents[0]
	if a.ID != "a1" || a.Name != "Forge" || a.Reputation != 87 || a.Status != "active" {
		t.Errorf("agent: %+v", a)
	}
	if len(a.Specialties) != 2 || a.TotalJobs != 12 {
		t.Errorf("agent details: %+v", a)
	}
	want, _ := time.Parse(time.RFC3339, "2026-08-27T10:00:00Z")
	if a.CreatedAt != want.UnixMilli() {
		t.Errorf("created_at: got %d, want %d", a.CreatedAt, want.UnixMilli())
	}
}

func TestAgents_Normalization(t *testing.T) {
	// WHAT: Sparse records are filled with display defaults; an explicit
	// zero reputation is kept, an absent one defaults to 50.
	// WHY: The upstream omits fields freely and the store must never see
	// empty display values.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"sparse"},
			{"id":"zeroed","reputation":0},
			{"name":"no id, skipped"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, discardLogger())
	agents := c.Agents(context.Background())
	if len(agents) != 2 {
		t.Fatalf("agents: got %d, want 2 (record without id skipped)", len(agents))
	}

	sparse := agents[0]
	if sparse.Name != "Unknown" || sparse.Status != "unknown" || sparse.Reputation != 50 {
		t.Errorf("sparse defaults: %+v", sparse)
	}
	if sparse.Specialties == nil || len(sparse.Specialties) != 0 {
		t.Errorf("specialties: got %v, want empty non-nil", sparse.Specialties)
	}
	if sparse.CreatedAt != 0 {
		t.Errorf("created_at: got %d, want 0", sparse.CreatedAt)
	}

	if agents[1].Reputation != 0 {
		t.Errorf("explicit zero reputation overwritten: got %d", agents[1].Reputation)
	}
}

func TestAgents_BadCreatedAt(t *testing.T) {
	// WHAT: An unparsable created_at degrades to zero, not a dropped record.
	// WHY: One malformed timestamp must not hide an agent.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a1","created_at":"yesterday-ish"}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, discardLogger())
	agents := c.Agents(context.Background())
	if len(agents) != 1 {
		t.Fatalf("agents: got %d, want 1", len(agents))
	}
	if agents[0].CreatedAt != 0 {
		t.Errorf("created_at: got %d, want 0", agents[0].CreatedAt)
	}
}

func TestAgents_DegradesToNil(t *testing.T) {
	// WHAT: Server errors, malformed bodies, and dead endpoints all return nil.
	// WHY: Fetch failures degrade the cycle, they never abort it.
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}},
		{"object not array", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"rate limited"}`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL}, discardLogger())
			if agents := c.Agents(context.Background()); agents != nil {
				t.Errorf("got %v, want nil", agents)
			}
		})
	}
}

func TestAgents_Unreachable(t *testing.T) {
	// WHAT: A connection failure returns nil.
	// WHY: The upstream being down is an expected operating condition.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // port now refuses connections

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, discardLogger())
	if agents := c.Agents(context.Background()); agents != nil {
		t.Errorf("got %v, want nil", agents)
	}
}

func TestJobCount(t *testing.T) {
	// WHAT: JobCount returns the array length for the requested status and
	// 0 on any failure.
	// WHY: Job stats are derived from list length, not a count endpoint.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("status") {
		case "open":
			w.Write([]byte(`[{"id":"j1"},{"id":"j2"},{"id":"j3"}]`))
		case "completed":
			w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, discardLogger())
	ctx := context.Background()
	if n := c.JobCount(ctx, "open"); n != 3 {
		t.Errorf("open: got %d, want 3", n)
	}
	if n := c.JobCount(ctx, "completed"); n != 0 {
		t.Errorf("completed: got %d, want 0", n)
	}
	if n := c.JobCount(ctx, "exploded"); n != 0 {
		t.Errorf("failure: got %d, want 0", n)
	}
}
