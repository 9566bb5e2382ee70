package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DashboardSummary derives the dashboard headline: agent totals, 24h-new
// count by first_seen, and the latest job-market sample's open/completed
// counts. An empty store yields all zeros, never an error.
func (s *Store) DashboardSummary(ctx context.Context) (*Summary, error) {
	var sum Summary

	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`).Scan(&sum.TotalAgents)
	if err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE status = 'active'`).Scan(&sum.ActiveAgents)
	if err != nil {
		return nil, fmt.Errorf("count active agents: %w", err)
	}

	dayAgo := time.Now().Add(-24 * time.Hour).UnixMilli()
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agents WHERE first_seen > ?`, dayAgo).Scan(&sum.NewAgents24h)
	if err != nil {
		return nil, fmt.Errorf("count new agents: %w", err)
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT total_open, total_completed FROM job_stats ORDER BY rowid DESC LIMIT 1`).
		Scan(&sum.OpenJobs, &sum.CompletedJobs)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("latest job stats: %w", err)
	}

	return &sum, nil
}
