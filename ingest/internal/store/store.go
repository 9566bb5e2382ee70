// Package store provides the data access layer for pulse analytics state.
//
// The store owns four collections: the agent mapping plus three bounded
// append-only logs (agent history, job-market stats, leaderboard moves).
// Every mutation appends and trims inside one transaction, so readers never
// observe a log over its retention bound, and no write is reported committed
// before SQLite has durably accepted the transaction.
package store

import (
	"database/sql"
	"time"

	"github.com/moltcities/pulse/idgen"
)

// Retention bounds and read caps for the bounded logs.
const (
	HistoryRetention  = 10_000 // agent history samples, global FIFO
	JobStatsRetention = 168    // one per cycle ≈ 7 days hourly
	MovesRetention    = 100    // leaderboard moves, FIFO

	LeaderboardLimit  = 50
	AgentHistoryLimit = 100
	RecentMovesLimit  = 20
)

// Store wraps the pulse database.
type Store struct {
	DB *sql.DB

	newHistID idgen.Generator
	newStatID idgen.Generator
	newMoveID idgen.Generator
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		newHistID: idgen.Prefixed("hist_", idgen.UUIDv7()),
		newStatID: idgen.Prefixed("stat_", idgen.UUIDv7()),
		newMoveID: idgen.Prefixed("move_", idgen.UUIDv7()),
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
