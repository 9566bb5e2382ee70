package store

import (
	"context"
	"database/sql"
	"fmt"
)

// appendHistory records one history sample inside the caller's transaction
// and trims the log to HistoryRetention, oldest rows first.
func (s *Store) appendHistory(ctx context.Context, tx *sql.Tx, a *Agent, now int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO agent_history (id, agent_id, reputation, total_jobs, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.newHistID(), a.ID, a.Reputation, a.TotalJobs, now)
	if err != nil {
		return fmt.Errorf("append history for %s: %w", a.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM agent_history WHERE rowid NOT IN
		(SELECT rowid FROM agent_history ORDER BY rowid DESC LIMIT ?)`,
		HistoryRetention)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

// AgentHistory returns the agent's most recent AgentHistoryLimit samples in
// chronological order.
func (s *Store) AgentHistory(ctx context.Context, agentID string) ([]*HistorySample, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, agent_id, reputation, total_jobs, recorded_at FROM
		(SELECT id, agent_id, reputation, total_jobs, recorded_at, rowid AS rid
		 FROM agent_history WHERE agent_id = ?
		 ORDER BY rid DESC LIMIT ?)
		ORDER BY rid ASC`, agentID, AgentHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*HistorySample{}
	for rows.Next() {
		var h HistorySample
		if err := rows.Scan(&h.ID, &h.AgentID, &h.Reputation, &h.TotalJobs, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		result = append(result, &h)
	}
	return result, rows.Err()
}

// HistoryCount returns the total number of retained history samples.
func (s *Store) HistoryCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_history`).Scan(&n)
	return n, err
}
