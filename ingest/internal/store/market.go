package store

import (
	"context"
	"fmt"
)

// InsertJobStats appends one job-market sample and trims the log to
// JobStatsRetention inside the same transaction.
func (s *Store) InsertJobStats(ctx context.Context, open, completed, totalAgents, newAgents int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin job stats: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO job_stats (id, total_open, total_completed, total_agents, new_agents, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.newStatID(), open, completed, totalAgents, newAgents, nowMs())
	if err != nil {
		return fmt.Errorf("insert job stats: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM job_stats WHERE rowid NOT IN
		(SELECT rowid FROM job_stats ORDER BY rowid DESC LIMIT ?)`,
		JobStatsRetention)
	if err != nil {
		return fmt.Errorf("trim job stats: %w", err)
	}

	return tx.Commit()
}

// JobStatsHistory returns up to the most recent JobStatsRetention samples in
// chronological order.
func (s *Store) JobStatsHistory(ctx context.Context) ([]*JobStatsSample, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, total_open, total_completed, total_agents, new_agents, recorded_at
		FROM job_stats ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*JobStatsSample{}
	for rows.Next() {
		var j JobStatsSample
		if err := rows.Scan(&j.ID, &j.TotalOpen, &j.TotalCompleted, &j.TotalAgents, &j.NewAgents, &j.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		result = append(result, &j)
	}
	return result, rows.Err()
}
