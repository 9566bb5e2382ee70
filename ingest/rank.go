package ingest

import (
	"sort"

	"github.com/moltcities/pulse/ingest/internal/apifetch"
)

// RankState maps agent id to its 1-based leaderboard rank at the last cycle.
type RankState map[string]int

// RankMove is one agent's rank change between two cycles.
type RankMove struct {
	AgentID string
	OldRank int
	NewRank int
	// Change is oldRank - newRank: positive means the agent moved up.
	Change int
}

// computeRanks assigns 1-based ranks to the snapshot (reputation descending,
// snapshot order breaks ties) and diffs them against the previous state.
// A move is emitted only for agents present in both states whose rank
// changed. The returned state fully replaces prev: agents that left the
// snapshot are forgotten.
func computeRanks(agents []apifetch.Agent, prev RankState) (RankState, []RankMove) {
	ranked := make([]apifetch.Agent, len(agents))
	copy(ranked, agents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Reputation > ranked[j].Reputation
	})

	state := make(RankState, len(ranked))
	var moves []RankMove
	for i, a := range ranked {
		rank := i + 1
		state[a.ID] = rank

		oldRank, seen := prev[a.ID]
		if !seen || oldRank == rank {
			continue
		}
		moves = append(moves, RankMove{
			AgentID: a.ID,
			OldRank: oldRank,
			NewRank: rank,
			Change:  oldRank - rank,
		})
	}
	return state, moves
}
