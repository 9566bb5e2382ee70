package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// UpsertAgent merges an incoming agent record into the agent mapping by id
// and appends one history sample, trimming the history log to its bound.
// The incoming record wins wholesale: callers normalize absent upstream
// fields to defaults before calling, and those defaults overwrite whatever
// was stored previously. Only first_seen survives from the existing row.
// Returns true when the id was previously unknown.
func (s *Store) UpsertAgent(ctx context.Context, a *Agent) (bool, error) {
	now := nowMs()

	specialties, err := json.Marshal(a.Specialties)
	if err != nil {
		return false, fmt.Errorf("marshal specialties: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var firstSeen int64
	isNew := false
	err = tx.QueryRowContext(ctx,
		`SELECT first_seen FROM agents WHERE id = ?`, a.ID).Scan(&firstSeen)
	switch {
	case err == sql.ErrNoRows:
		isNew = true
		firstSeen = now
	case err != nil:
		return false, fmt.Errorf("lookup agent %s: %w", a.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO agents (id, name, reputation, status, specialties, total_jobs, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			reputation = excluded.reputation,
			status = excluded.status,
			specialties = excluded.specialties,
			total_jobs = excluded.total_jobs,
			last_seen = excluded.last_seen`,
		a.ID, a.Name, a.Reputation, a.Status, string(specialties), a.TotalJobs, firstSeen, now)
	if err != nil {
		return false, fmt.Errorf("upsert agent %s: %w", a.ID, err)
	}

	if err := s.appendHistory(ctx, tx, a, now); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert: %w", err)
	}

	a.FirstSeen = firstSeen
	a.LastSeen = now
	return isNew, nil
}

// GetAgent returns one agent by id, or nil when unknown.
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, reputation, status, specialties, total_jobs, first_seen, last_seen
		FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// Leaderboard returns agents ordered by reputation descending, ties broken
// by insertion order, capped at LeaderboardLimit.
func (s *Store) Leaderboard(ctx context.Context) ([]*Agent, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, reputation, status, specialties, total_jobs, first_seen, last_seen
		FROM agents ORDER BY reputation DESC, rowid ASC LIMIT ?`, LeaderboardLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	var specialties string
	if err := row.Scan(&a.ID, &a.Name, &a.Reputation, &a.Status,
		&specialties, &a.TotalJobs, &a.FirstSeen, &a.LastSeen); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(specialties), &a.Specialties); err != nil {
		a.Specialties = nil
	}
	if a.Specialties == nil {
		a.Specialties = []string{}
	}
	return &a, nil
}
