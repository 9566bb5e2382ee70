package store

import "database/sql"

// Schema is the complete pulse schema. All timestamps are unix milliseconds.
// History tables carry no foreign key to agents: a move may legitimately
// outlive the agent row it references (the read side falls back to "Unknown").
const Schema = `
-- Latest known profile per agent
CREATE TABLE IF NOT EXISTS agents (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT 'Unknown',
    reputation  INTEGER NOT NULL DEFAULT 50,
    status      TEXT NOT NULL DEFAULT 'unknown',
    specialties TEXT NOT NULL DEFAULT '[]',
    total_jobs  INTEGER NOT NULL DEFAULT 0,
    first_seen  INTEGER NOT NULL,
    last_seen   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_reputation ON agents(reputation DESC);
CREATE INDEX IF NOT EXISTS idx_agents_first_seen ON agents(first_seen);

-- Reputation/job-count samples, one per agent per poll (global FIFO 10000)
CREATE TABLE IF NOT EXISTS agent_history (
    id          TEXT PRIMARY KEY,
    agent_id    TEXT NOT NULL,
    reputation  INTEGER NOT NULL,
    total_jobs  INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_history_agent ON agent_history(agent_id, recorded_at);

-- Job-market aggregates, one per poll cycle (FIFO 168)
CREATE TABLE IF NOT EXISTS job_stats (
    id              TEXT PRIMARY KEY,
    total_open      INTEGER NOT NULL,
    total_completed INTEGER NOT NULL,
    total_agents    INTEGER NOT NULL,
    new_agents      INTEGER NOT NULL,
    recorded_at     INTEGER NOT NULL
);

-- Rank changes between consecutive polls (FIFO 100)
CREATE TABLE IF NOT EXISTS leaderboard_moves (
    id          TEXT PRIMARY KEY,
    agent_id    TEXT NOT NULL,
    old_rank    INTEGER NOT NULL,
    new_rank    INTEGER NOT NULL,
    change      INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moves_time ON leaderboard_moves(recorded_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
