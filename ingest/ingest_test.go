package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moltcities/pulse/dbopen"
)

// fakeUpstream is a mutable stand-in for the marketplace API.
type fakeUpstream struct {
	mu        sync.Mutex
	agents    any // marshalled as-is; set to nil for a 500
	open      int
	completed int
	failJobs  map[string]bool // status → serve 500
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.agents == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(f.agents)
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		status := r.URL.Query().Get("status")
		if f.failJobs[status] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		n := f.open
		if status == "completed" {
			n = f.completed
		}
		jobs := make([]map[string]string, n)
		for i := range jobs {
			jobs[i] = map[string]string{"id": "j"}
		}
		json.NewEncoder(w).Encode(jobs)
	})
	return mux
}

func (f *fakeUpstream) set(agents any, open, completed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = agents
	f.open = open
	f.completed = completed
}

func upstreamAgent(id string, rep int) map[string]any {
	return map[string]any{"id": id, "name": "Agent " + id, "reputation": rep, "status": "active"}
}

func setupTestService(t *testing.T) (*Service, *fakeUpstream) {
	t.Helper()
	up := &fakeUpstream{agents: []any{}}
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	db := dbopen.OpenMemory(t)
	cfg := &Config{}
	cfg.API.BaseURL = srv.URL
	svc, err := New(db, cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, up
}

func TestScrape_FullCycle(t *testing.T) {
	// WHAT: One cycle upserts agents, records job counts, and writes one
	// market sample.
	// WHY: This is the pipeline's end-to-end happy path.
	svc, up := setupTestService(t)
	up.set([]any{upstreamAgent("a1", 90), upstreamAgent("a2", 80)}, 5, 3)

	res, err := svc.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if res.Agents != 2 || res.OpenJobs != 5 || res.CompletedJobs != 3 || res.Moves != 0 {
		t.Errorf("result: %+v", res)
	}

	lb, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb) != 2 || lb[0].ID != "a1" {
		t.Errorf("leaderboard: %v", lb)
	}

	stats, err := svc.JobStats(context.Background())
	if err != nil {
		t.Fatalf("job stats: %v", err)
	}
	if len(stats) != 1 || stats[0].TotalOpen != 5 || stats[0].TotalCompleted != 3 || stats[0].TotalAgents != 2 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestScrape_RankMovesAcrossCycles(t *testing.T) {
	// WHAT: A reputation reorder between cycles persists one move per
	// changed rank, with names joined in the read path.
	// WHY: Moves are the product of two consecutive snapshots.
	svc, up := setupTestService(t)
	ctx := context.Background()

	up.set([]any{upstreamAgent("A", 90), upstreamAgent("B", 80), upstreamAgent("C", 70)}, 0, 0)
	res, err := svc.Scrape(ctx)
	if err != nil {
		t.Fatalf("first scrape: %v", err)
	}
	if res.Moves != 0 {
		t.Errorf("first cycle moves: got %d, want 0", res.Moves)
	}

	up.set([]any{upstreamAgent("B", 95), upstreamAgent("A", 90), upstreamAgent("C", 70)}, 0, 0)
	res, err = svc.Scrape(ctx)
	if err != nil {
		t.Fatalf("second scrape: %v", err)
	}
	if res.Moves != 2 {
		t.Fatalf("second cycle moves: got %d, want 2", res.Moves)
	}

	moves, err := svc.Moves(ctx)
	if err != nil {
		t.Fatalf("moves: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("stored moves: got %d, want 2", len(moves))
	}
	for _, m := range moves {
		switch m.AgentID {
		case "A":
			if m.OldRank != 1 || m.NewRank != 2 || m.Change != -1 {
				t.Errorf("A move: %+v", m)
			}
			if m.AgentName != "Agent A" {
				t.Errorf("A name: %q", m.AgentName)
			}
		case "B":
			if m.OldRank != 2 || m.NewRank != 1 || m.Change != 1 {
				t.Errorf("B move: %+v", m)
			}
		default:
			t.Errorf("unexpected move for %s", m.AgentID)
		}
	}
}

func TestScrape_JobFetchFailureDegrades(t *testing.T) {
	// WHAT: A 500 on the open-jobs endpoint yields open=0 without touching
	// the agent-upsert portion of the same cycle.
	// WHY: Endpoint failures are independent and non-fatal.
	svc, up := setupTestService(t)
	up.set([]any{upstreamAgent("a1", 90)}, 9, 4)
	up.mu.Lock()
	up.failJobs = map[string]bool{"open": true}
	up.mu.Unlock()

	res, err := svc.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if res.OpenJobs != 0 {
		t.Errorf("open: got %d, want 0", res.OpenJobs)
	}
	if res.CompletedJobs != 4 {
		t.Errorf("completed: got %d, want 4", res.CompletedJobs)
	}
	if res.Agents != 1 {
		t.Errorf("agents: got %d, want 1", res.Agents)
	}
	if _, err := svc.GetAgent(context.Background(), "a1"); err != nil {
		t.Errorf("agent not upserted: %v", err)
	}
}

func TestScrape_AgentFetchFailureDegradesToEmpty(t *testing.T) {
	// WHAT: An agents endpoint failure produces an empty cycle that still
	// records a market sample with zero agents.
	// WHY: The hourly record keeps its cadence through upstream outages.
	svc, up := setupTestService(t)
	up.set(nil, 0, 0) // 500 on /agents

	res, err := svc.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if res.Agents != 0 || res.Moves != 0 {
		t.Errorf("result: %+v", res)
	}

	stats, err := svc.JobStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].TotalAgents != 0 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestScrape_SingleFlight(t *testing.T) {
	// WHAT: A scrape requested while another holds the cycle lock fails
	// with ErrScrapeInProgress.
	// WHY: Overlapping cycles would race on the carried rank state.
	svc, _ := setupTestService(t)

	svc.mu.Lock()
	_, err := svc.Scrape(context.Background())
	svc.mu.Unlock()

	if !errors.Is(err, ErrScrapeInProgress) {
		t.Errorf("err: got %v, want ErrScrapeInProgress", err)
	}
}

func TestScrape_NewAgents24h(t *testing.T) {
	// WHAT: The market sample counts agents whose upstream created_at falls
	// inside the trailing 24 hours.
	// WHY: The "new agents" headline comes from upstream registration time,
	// not from when this process first saw the agent.
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	fresh := upstreamAgent("fresh", 60)
	fresh["created_at"] = now.Add(-2 * time.Hour).Format(time.RFC3339)
	stale := upstreamAgent("stale", 70)
	stale["created_at"] = now.Add(-72 * time.Hour).Format(time.RFC3339)
	undated := upstreamAgent("undated", 50)

	svc, up := setupTestService(t)
	WithClock(func() time.Time { return now })(svc)
	up.set([]any{fresh, stale, undated}, 0, 0)

	res, err := svc.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if res.NewAgents24h != 1 {
		t.Errorf("new agents: got %d, want 1", res.NewAgents24h)
	}

	stats, _ := svc.JobStats(context.Background())
	if len(stats) != 1 || stats[0].NewAgents != 1 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestGetAgent_NotFound(t *testing.T) {
	// WHAT: Unknown agent ids map to ErrAgentNotFound.
	// WHY: The API layer turns this sentinel into a 404.
	svc, _ := setupTestService(t)
	_, err := svc.GetAgent(context.Background(), "nope")
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("err: got %v, want ErrAgentNotFound", err)
	}
}
