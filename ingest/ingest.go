// Package ingest polls the marketplace API on a schedule and maintains the
// durable analytics state: agent profiles, per-agent reputation history,
// hourly job-market samples, and leaderboard rank moves.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/moltcities/pulse/ingest/internal/apifetch"
	"github.com/moltcities/pulse/ingest/internal/scheduler"
	"github.com/moltcities/pulse/ingest/internal/store"
	"github.com/moltcities/pulse/kit"
	"github.com/moltcities/pulse/observability"
)

// Service is the pulse ingestion orchestrator.
type Service struct {
	store     *store.Store
	api       *apifetch.Client
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	config    *Config
	metrics   *observability.MetricsManager
	events    *observability.EventLogger

	// mu makes Scrape single-flight: one cycle owns ranks at a time.
	mu    sync.Mutex
	ranks RankState

	now func() time.Time
}

// ScrapeResult summarizes one completed ingestion cycle.
type ScrapeResult struct {
	Agents        int `json:"agents"`
	OpenJobs      int `json:"open_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	Moves         int `json:"moves"`
	NewAgents24h  int `json:"new_agents_24h"`
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithAPIClient overrides the upstream client. Use in tests with httptest.
func WithAPIClient(c *apifetch.Client) ServiceOption {
	return func(svc *Service) { svc.api = c }
}

// WithClock overrides the time source. Use in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.now = now }
}

// WithMetrics records per-cycle metrics to the observability store.
func WithMetrics(mm *observability.MetricsManager) ServiceOption {
	return func(svc *Service) { svc.metrics = mm }
}

// WithEvents logs one business event per completed cycle.
func WithEvents(l *observability.EventLogger) ServiceOption {
	return func(svc *Service) { svc.events = l }
}

// New creates an ingestion Service on top of an opened database.
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("ingest: apply schema: %w", err)
	}

	svc := &Service{
		store:  store.NewStore(db),
		api:    apifetch.New(cfg.API, logger),
		logger: logger,
		config: cfg,
		ranks:  RankState{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.scheduler = scheduler.New(func(ctx context.Context) error {
		_, err := svc.Scrape(kit.WithTransport(ctx, "scheduler"))
		return err
	}, cfg.Scheduler, logger)

	return svc, nil
}

// Start launches the background scheduler. Non-blocking. The scheduler runs
// one cycle immediately, then one per interval.
func (svc *Service) Start(ctx context.Context) {
	go svc.scheduler.Run(ctx)
	svc.logger.Info("ingest: started", "interval", svc.config.Scheduler.Interval)
}

// Scrape runs one full ingestion cycle: fetch the agent roster, upsert every
// record, fetch job counts, persist rank moves, and record one market sample.
// Fetch failures degrade (empty roster, zero counts); store failures abort.
// Returns ErrScrapeInProgress when another cycle is running.
func (svc *Service) Scrape(ctx context.Context) (*ScrapeResult, error) {
	if !svc.mu.TryLock() {
		return nil, ErrScrapeInProgress
	}
	defer svc.mu.Unlock()

	start := svc.now()
	svc.logger.Info("scrape: starting", "transport", kit.GetTransport(ctx))

	agents := svc.api.Agents(ctx)
	for i := range agents {
		a := &agents[i]
		isNew, err := svc.store.UpsertAgent(ctx, &store.Agent{
			ID:          a.ID,
			Name:        a.Name,
			Reputation:  a.Reputation,
			Status:      a.Status,
			Specialties: a.Specialties,
			TotalJobs:   a.TotalJobs,
		})
		if err != nil {
			return nil, fmt.Errorf("ingest: upsert agent %s: %w", a.ID, err)
		}
		if isNew {
			svc.logger.Debug("scrape: new agent", "agent_id", a.ID, "name", a.Name)
		}
	}

	open := svc.api.JobCount(ctx, "open")
	completed := svc.api.JobCount(ctx, "completed")

	var moves []RankMove
	if len(agents) > 0 {
		var next RankState
		next, moves = computeRanks(agents, svc.ranks)
		for _, m := range moves {
			if err := svc.store.InsertLeaderboardMove(ctx, m.AgentID, m.OldRank, m.NewRank, m.Change); err != nil {
				return nil, fmt.Errorf("ingest: insert move for %s: %w", m.AgentID, err)
			}
			svc.logger.Info("scrape: rank move",
				"agent_id", m.AgentID, "old_rank", m.OldRank, "new_rank", m.NewRank, "change", m.Change)
		}
		svc.ranks = next
	}

	newAgents := svc.countNewAgents(agents)
	if err := svc.store.InsertJobStats(ctx, open, completed, len(agents), newAgents); err != nil {
		return nil, fmt.Errorf("ingest: insert job stats: %w", err)
	}

	res := &ScrapeResult{
		Agents:        len(agents),
		OpenJobs:      open,
		CompletedJobs: completed,
		Moves:         len(moves),
		NewAgents24h:  newAgents,
	}
	svc.logger.Info("scrape: done",
		"agents", res.Agents, "open_jobs", res.OpenJobs, "completed_jobs", res.CompletedJobs,
		"moves", res.Moves, "elapsed", time.Since(start))
	svc.recordCycle(ctx, res, time.Since(start))
	return res, nil
}

// recordCycle emits observability datapoints for a completed cycle.
func (svc *Service) recordCycle(ctx context.Context, res *ScrapeResult, elapsed time.Duration) {
	if svc.metrics != nil {
		svc.metrics.RecordSimple(observability.MetricScrapeDurationMs, float64(elapsed.Milliseconds()), "milliseconds")
		svc.metrics.RecordSimple(observability.MetricScrapeAgentsCount, float64(res.Agents), "count")
		svc.metrics.RecordSimple(observability.MetricScrapeMovesCount, float64(res.Moves), "count")
		svc.metrics.RecordSimple(observability.MetricScrapeNewAgents, float64(res.NewAgents24h), "count")
	}
	if svc.events != nil {
		details, _ := json.Marshal(res)
		svc.events.LogEvent(ctx, observability.BusinessEvent{
			EventType:   "scrape_cycle",
			ServiceName: "pulse",
			Action:      "scrape",
			Details:     string(details),
			Success:     true,
		})
	}
}

// countNewAgents counts snapshot agents whose upstream registration time
// falls within the last 24 hours.
func (svc *Service) countNewAgents(agents []apifetch.Agent) int {
	cutoff := svc.now().Add(-24 * time.Hour).UnixMilli()
	n := 0
	for _, a := range agents {
		if a.CreatedAt > cutoff {
			n++
		}
	}
	return n
}

// --- Read operations ---

// Summary returns the dashboard headline counts.
func (svc *Service) Summary(ctx context.Context) (*store.Summary, error) {
	return svc.store.DashboardSummary(ctx)
}

// Leaderboard returns the top agents by reputation, capped at 50.
func (svc *Service) Leaderboard(ctx context.Context) ([]*store.Agent, error) {
	return svc.store.Leaderboard(ctx)
}

// GetAgent returns one agent, or ErrAgentNotFound.
func (svc *Service) GetAgent(ctx context.Context, agentID string) (*store.Agent, error) {
	a, err := svc.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	return a, nil
}

// AgentHistory returns an agent's recent reputation samples, chronological.
func (svc *Service) AgentHistory(ctx context.Context, agentID string) ([]*store.HistorySample, error) {
	return svc.store.AgentHistory(ctx, agentID)
}

// JobStats returns the job-market sample history, chronological.
func (svc *Service) JobStats(ctx context.Context) ([]*store.JobStatsSample, error) {
	return svc.store.JobStatsHistory(ctx)
}

// Moves returns recent leaderboard moves, newest first.
func (svc *Service) Moves(ctx context.Context) ([]*store.EnrichedMove, error) {
	return svc.store.RecentMoves(ctx)
}
