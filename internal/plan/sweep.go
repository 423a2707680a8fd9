package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/ingest"
	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/source"
	"github.com/vbstat/volleycrawl/internal/source/volleymsk"
	"github.com/vbstat/volleycrawl/internal/store"
)

// DefaultEmptyThreshold ends a sweep after this many consecutive empty
// pages. Identifier gaps on volleymsk are real but short; a run of fifty
// means the tail has been reached.
const DefaultEmptyThreshold = 50

// SweepPlanner walks volleymsk match ids in strictly increasing order,
// starting one past the stored maximum (or From, or 1 on a rescan), and
// stops after EmptyThreshold consecutive empty pages.
type SweepPlanner struct {
	store   store.Gateway
	fetcher Fetcher
	ing     *ingest.VolleyMSK
	baseURL string
	opts    Options
	log     *zap.Logger

	started     bool
	cursor      int64
	emptyStreak int
	threshold   int
}

// NewSweepPlanner builds a sweep over the volleymsk source.
func NewSweepPlanner(gw store.Gateway, f Fetcher, ing *ingest.VolleyMSK, baseURL string, opts Options, log *zap.Logger) *SweepPlanner {
	if log == nil {
		log = zap.NewNop()
	}
	threshold := opts.EmptyThreshold
	if threshold <= 0 {
		threshold = DefaultEmptyThreshold
	}
	return &SweepPlanner{
		store:     gw,
		fetcher:   f,
		ing:       ing,
		baseURL:   baseURL,
		opts:      opts,
		log:       log,
		threshold: threshold,
	}
}

// Next returns the unit for the next match id, or nil once the empty run or
// the To bound ends the sweep.
func (p *SweepPlanner) Next(ctx context.Context) (*Unit, error) {
	if !p.started {
		if err := p.init(ctx); err != nil {
			return nil, err
		}
		p.started = true
	}
	if p.emptyStreak >= p.threshold {
		return nil, nil
	}
	if p.opts.To > 0 && p.cursor > p.opts.To {
		return nil, nil
	}

	id := p.cursor
	p.cursor++
	return &Unit{
		Label: fmt.Sprintf("volleymsk match %d", id),
		Run: func(ctx context.Context) (Result, error) {
			return p.runMatch(ctx, id)
		},
	}, nil
}

func (p *SweepPlanner) init(ctx context.Context) error {
	switch {
	case p.opts.From > 0:
		p.cursor = p.opts.From
	case p.opts.Rescan:
		p.cursor = 1
	default:
		max, err := p.store.MaxMatchNativeID(ctx, record.SourceVolleyMSK)
		if err != nil {
			return fmt.Errorf("sweep: stored max id: %w", err)
		}
		p.cursor = max + 1
	}
	p.log.Info("sweep starting",
		zap.Int64("from", p.cursor),
		zap.Int64("to", p.opts.To),
		zap.Int("empty_threshold", p.threshold))
	return nil
}

func (p *SweepPlanner) runMatch(ctx context.Context, id int64) (Result, error) {
	if p.opts.SkipExisting {
		existing, ok, err := p.store.FindMatchByNativeID(ctx, record.SourceVolleyMSK, id)
		if err != nil {
			return "", fmt.Errorf("sweep match %d: lookup: %w", id, err)
		}
		if ok && existing.HomeTeamID != 0 {
			return ResultSkipped, nil
		}
	}

	raw, err := p.fetcher.Fetch(ctx, record.SourceVolleyMSK, volleymsk.MatchURL(p.baseURL, id))
	if err != nil {
		return "", err
	}
	page, err := volleymsk.DecodeMatch(raw, id)
	if err != nil {
		if source.IsEmpty(err) {
			return ResultEmpty, nil
		}
		return "", err
	}
	if _, err := p.ing.SaveMatch(ctx, page); err != nil {
		return "", err
	}
	return ResultSaved, nil
}

// Observe updates the empty run: a found or skipped id proves the sweep is
// still inside the populated range.
func (p *SweepPlanner) Observe(res Result) {
	switch res {
	case ResultEmpty:
		p.emptyStreak++
	case ResultSaved, ResultSkipped:
		p.emptyStreak = 0
	}
}

// TotalEstimate is only known for a bounded sweep.
func (p *SweepPlanner) TotalEstimate() int {
	if p.opts.To > 0 && p.opts.From > 0 && p.opts.To >= p.opts.From {
		return int(p.opts.To - p.opts.From + 1)
	}
	return 0
}

var _ Planner = (*SweepPlanner)(nil)
