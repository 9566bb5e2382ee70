package store

// Agent is the latest known profile for one marketplace agent.
// FirstSeen is set on the first upsert and never changes afterwards;
// LastSeen is refreshed on every upsert.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Reputation  int      `json:"reputation"`
	Status      string   `json:"status"`
	Specialties []string `json:"specialties"`
	TotalJobs   int      `json:"total_jobs"`
	FirstSeen   int64    `json:"first_seen"`
	LastSeen    int64    `json:"last_seen"`
}

// HistorySample is one immutable reputation/job-count sample for an agent.
type HistorySample struct {
	ID         string `json:"-"`
	AgentID    string `json:"agent_id"`
	Reputation int    `json:"reputation"`
	TotalJobs  int    `json:"total_jobs"`
	RecordedAt int64  `json:"recorded_at"`
}

// JobStatsSample is one immutable job-market aggregate, one per poll cycle.
type JobStatsSample struct {
	ID             string `json:"-"`
	TotalOpen      int    `json:"total_open"`
	TotalCompleted int    `json:"total_completed"`
	TotalAgents    int    `json:"total_agents"`
	NewAgents      int    `json:"new_agents"`
	RecordedAt     int64  `json:"recorded_at"`
}

// Move is one immutable leaderboard rank change. Change is signed:
// positive means the agent moved up (toward rank 1).
type Move struct {
	ID         string `json:"-"`
	AgentID    string `json:"agent_id"`
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	Change     int    `json:"change"`
	RecordedAt int64  `json:"recorded_at"`
}

// EnrichedMove is a Move joined with the agent's current display name.
type EnrichedMove struct {
	Move
	AgentName string `json:"agent_name"`
}

// Summary is the derived dashboard headline.
type Summary struct {
	TotalAgents   int `json:"total_agents"`
	ActiveAgents  int `json:"active_agents"`
	NewAgents24h  int `json:"new_agents_24h"`
	OpenJobs      int `json:"open_jobs"`
	CompletedJobs int `json:"completed_jobs"`
}
