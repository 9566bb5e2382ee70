package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moltcities/pulse/ingest"
	"github.com/moltcities/pulse/observability"
)

// workerName identifies this process in the observability heartbeat table.
const workerName = "pulse"

// heartbeatStaleness is the alive/stale boundary for /api/health
// (3x the heartbeat interval).
const heartbeatStaleness = 45 * time.Second

// registerAPI mounts the read API and the manual scrape trigger.
// obsDB may be nil; /api/health then omits the worker heartbeat.
func registerAPI(r chi.Router, svc *ingest.Service, obsDB *sql.DB) {
	r.Get("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, sum)
	})

	r.Get("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		agents, err := svc.Leaderboard(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if agents == nil {
			agents = []*ingest.Agent{}
		}
		writeJSON(w, 200, agents)
	})

	r.Get("/api/agents/{agentID}/history", func(w http.ResponseWriter, r *http.Request) {
		agentID := chi.URLParam(r, "agentID")
		if _, err := svc.GetAgent(r.Context(), agentID); err != nil {
			if errors.Is(err, ingest.ErrAgentNotFound) {
				writeError(w, 404, err)
				return
			}
			writeError(w, 500, err)
			return
		}
		hist, err := svc.AgentHistory(r.Context(), agentID)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if hist == nil {
			hist = []*ingest.HistorySample{}
		}
		writeJSON(w, 200, hist)
	})

	r.Get("/api/stats/jobs", func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.JobStats(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if stats == nil {
			stats = []*ingest.JobStatsSample{}
		}
		writeJSON(w, 200, stats)
	})

	r.Get("/api/moves", func(w http.ResponseWriter, r *http.Request) {
		moves, err := svc.Moves(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if moves == nil {
			moves = []*ingest.EnrichedMove{}
		}
		writeJSON(w, 200, moves)
	})

	r.Post("/api/scrape", func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Scrape(r.Context())
		if err != nil {
			if errors.Is(err, ingest.ErrScrapeInProgress) {
				writeError(w, 409, err)
				return
			}
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]any{
			"success": true,
			"agents":  res.Agents,
			"jobs": map[string]int{
				"open":      res.OpenJobs,
				"completed": res.CompletedJobs,
			},
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if obsDB != nil {
			hb, err := observability.LatestHeartbeat(r.Context(), obsDB, workerName, heartbeatStaleness)
			if err == nil && hb != nil {
				body["worker"] = hb
			}
		}
		writeJSON(w, 200, body)
	})
}

// registerStatic serves the embedded dashboard.
func registerStatic(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("static/index.html")
		if err != nil {
			http.Error(w, "not found", 404)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
	r.Handle("/static/*", http.FileServerFS(staticFS))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
