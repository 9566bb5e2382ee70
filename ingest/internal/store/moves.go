package store

import (
	"context"
	"fmt"
)

// InsertLeaderboardMove appends one rank-change record and trims the log to
// MovesRetention inside the same transaction.
func (s *Store) InsertLeaderboardMove(ctx context.Context, agentID string, oldRank, newRank, change int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leaderboard_moves (id, agent_id, old_rank, new_rank, change, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.newMoveID(), agentID, oldRank, newRank, change, nowMs())
	if err != nil {
		return fmt.Errorf("insert move for %s: %w", agentID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM leaderboard_moves WHERE rowid NOT IN
		(SELECT rowid FROM leaderboard_moves ORDER BY rowid DESC LIMIT ?)`,
		MovesRetention)
	if err != nil {
		return fmt.Errorf("trim moves: %w", err)
	}

	return tx.Commit()
}

// RecentMoves returns the most recent RecentMovesLimit moves, newest first,
// each enriched with the agent's current display name. Moves whose agent
// record no longer exists fall back to "Unknown".
func (s *Store) RecentMoves(ctx context.Context) ([]*EnrichedMove, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT m.id, m.agent_id, m.old_rank, m.new_rank, m.change, m.recorded_at,
			COALESCE(a.name, 'Unknown')
		FROM leaderboard_moves m
		LEFT JOIN agents a ON a.id = m.agent_id
		ORDER BY m.rowid DESC LIMIT ?`, RecentMovesLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*EnrichedMove{}
	for rows.Next() {
		var m EnrichedMove
		if err := rows.Scan(&m.ID, &m.AgentID, &m.OldRank, &m.NewRank, &m.Change,
			&m.RecordedAt, &m.AgentName); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}

// MoveCount returns the total number of retained moves.
func (s *Store) MoveCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaderboard_moves`).Scan(&n)
	return n, err
}
