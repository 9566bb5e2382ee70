package ingest

import "github.com/moltcities/pulse/ingest/internal/store"

// Store types surfaced to transports. The store package stays internal; these
// aliases are the public read-model shapes.
type (
	Agent          = store.Agent
	HistorySample  = store.HistorySample
	JobStatsSample = store.JobStatsSample
	Move           = store.Move
	EnrichedMove   = store.EnrichedMove
	Summary        = store.Summary
)
