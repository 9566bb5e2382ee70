package ingest

import "errors"

// ErrScrapeInProgress is returned when a scrape is requested while another
// cycle is still running.
var ErrScrapeInProgress = errors.New("ingest: scrape already in progress")

// ErrAgentNotFound is returned when an agent id is not in the store.
var ErrAgentNotFound = errors.New("ingest: agent not found")
