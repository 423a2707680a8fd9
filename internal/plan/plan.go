// Package plan generates the work units a crawl processes. Each source has
// its own discovery policy: volleymsk is swept by incrementing native ids
// until a run of empty pages, bcl is probed through its season schedules.
// A unit is one page-sized step; the job controller consumes units one at a
// time so pause and stop land on unit boundaries.
package plan

import (
	"context"

	"github.com/vbstat/volleycrawl/internal/record"
)

// Result classifies a finished work unit.
type Result string

// Unit results.
const (
	ResultSaved   Result = "saved"   // entity fetched and persisted
	ResultEmpty   Result = "empty"   // page exists, no entity behind it
	ResultSkipped Result = "skipped" // already stored, not refetched
)

// Unit is one crawl step. Run does the fetch/decode/persist work and
// reports how it went; errors are returned, never folded into a Result.
type Unit struct {
	Label string
	Run   func(ctx context.Context) (Result, error)
}

// Planner produces units in crawl order. Next returns nil when the crawl is
// complete. Observe feeds unit outcomes back so the planner can decide
// termination; it is never called for units that errored.
type Planner interface {
	Next(ctx context.Context) (*Unit, error)
	Observe(Result)
	// TotalEstimate is the number of units known so far; zero means
	// open-ended.
	TotalEstimate() int
}

// Fetcher is the page retrieval dependency shared by the planners.
type Fetcher interface {
	Fetch(ctx context.Context, src record.Source, url string) ([]byte, error)
}

// Options tune a single crawl run.
type Options struct {
	// From/To bound an identifier sweep; zero means open.
	From int64
	To   int64
	// Rescan restarts discovery from the beginning instead of resuming
	// past the stored maximum.
	Rescan bool
	// SkipExisting leaves already-stored entities unfetched.
	SkipExisting bool
	// EmptyThreshold is the run of consecutive empty pages that ends a
	// sweep; zero takes the default.
	EmptyThreshold int
	// Season pins a bcl crawl to one season ordinal; zero auto-detects.
	Season int
}
