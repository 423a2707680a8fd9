package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/ingest"
	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/source"
	"github.com/vbstat/volleycrawl/internal/source/bcl"
	"github.com/vbstat/volleycrawl/internal/store"
)

// ScheduleProbePlanner crawls bcl by diffing season schedules against the
// store. It processes the latest known season, then probes one season past
// it: the probe compares the nav label of the probed season against the
// stored latest label, because an out-of-range season request silently
// serves the current season's content: a label is trustworthy, an ordinal
// or page title is not.
//
// Units are enqueued lazily: the schedule unit discovers match units, and
// once new matches land, follow-up units for the season's teams, players
// and referees. All queue mutation happens on the worker goroutine.
type ScheduleProbePlanner struct {
	store   store.Gateway
	fetcher Fetcher
	ing     *ingest.BCL
	baseURL string
	opts    Options
	log     *zap.Logger

	started bool
	queue   []*Unit
	pos     int
}

// NewScheduleProbePlanner builds a probe crawl over the bcl source.
func NewScheduleProbePlanner(gw store.Gateway, f Fetcher, ing *ingest.BCL, baseURL string, opts Options, log *zap.Logger) *ScheduleProbePlanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleProbePlanner{
		store:   gw,
		fetcher: f,
		ing:     ing,
		baseURL: baseURL,
		opts:    opts,
		log:     log,
	}
}

// Next pops the next queued unit, planning the initial queue on first call.
func (p *ScheduleProbePlanner) Next(ctx context.Context) (*Unit, error) {
	if !p.started {
		if err := p.plan(ctx); err != nil {
			return nil, err
		}
		p.started = true
	}
	if p.pos >= len(p.queue) {
		return nil, nil
	}
	u := p.queue[p.pos]
	p.pos++
	return u, nil
}

func (p *ScheduleProbePlanner) plan(ctx context.Context) error {
	switch {
	case p.opts.Season > 0:
		p.enqueueSeason(p.opts.Season, false)
	case p.opts.Rescan:
		// Full backfill: walk seasons from the first until one is missing.
		p.enqueueSeason(1, true)
	default:
		latest, ok, err := p.store.LatestSeason(ctx)
		if err != nil {
			return fmt.Errorf("probe: latest season: %w", err)
		}
		if !ok {
			p.enqueueSeason(1, true)
			return nil
		}
		p.enqueueSeason(latest.Number, false)
		p.enqueueProbe(latest.Number + 1)
	}
	return nil
}

// enqueueSeason adds the schedule unit for one season. With chain set, a
// season that exists enqueues its successor after processing (backfill walk).
func (p *ScheduleProbePlanner) enqueueSeason(num int, chain bool) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl season %d schedule", num),
		Run: func(ctx context.Context) (Result, error) {
			return p.runSchedule(ctx, num, chain)
		},
	})
}

// enqueueProbe adds the new-season label check for one ordinal.
func (p *ScheduleProbePlanner) enqueueProbe(num int) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl season %d probe", num),
		Run: func(ctx context.Context) (Result, error) {
			return p.runProbe(ctx, num)
		},
	})
}

func (p *ScheduleProbePlanner) runSchedule(ctx context.Context, num int, chain bool) (Result, error) {
	raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.SeasonURL(p.baseURL, num))
	if err != nil {
		return "", err
	}
	seasonPage, err := bcl.DecodeSeason(raw, num)
	if err != nil {
		if source.IsEmpty(err) {
			return ResultEmpty, nil
		}
		return "", err
	}
	season, err := p.ing.SaveSeason(ctx, seasonPage)
	if err != nil {
		return "", err
	}

	newMatches := 0
	for _, tt := range []string{bcl.TournamentChampionship, bcl.TournamentCup} {
		raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.ScheduleURL(p.baseURL, num, tt))
		if err != nil {
			p.log.Warn("schedule fetch failed",
				zap.Int("season", num), zap.String("tournament", tt), zap.Error(err))
			continue
		}
		rows, err := bcl.DecodeSchedule(raw, tt)
		if err != nil {
			p.log.Warn("schedule decode failed",
				zap.Int("season", num), zap.String("tournament", tt), zap.Error(err))
			continue
		}
		for _, row := range rows {
			needsDetail, err := p.ing.SaveScheduleStub(ctx, row, season.ID)
			if err != nil {
				return "", err
			}
			if needsDetail || !p.opts.SkipExisting {
				p.enqueueMatch(num, season.ID, row.NativeID)
				newMatches++
			}
		}
	}

	if newMatches > 0 {
		p.enqueueTeams(num)
		// Deferred: match units must land their stat rows before the
		// season's players can be enumerated.
		p.queuePlayersAfterMatches(num, season.ID)
		p.enqueueReferees(num)
	}
	if chain {
		p.enqueueSeason(num+1, true)
	}
	if newMatches == 0 {
		return ResultEmpty, nil
	}
	return ResultSaved, nil
}

func (p *ScheduleProbePlanner) runProbe(ctx context.Context, num int) (Result, error) {
	raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.SeasonURL(p.baseURL, num))
	if err != nil {
		return "", err
	}
	probe, err := bcl.DecodeSeason(raw, num)
	if err != nil {
		if source.IsEmpty(err) {
			return ResultEmpty, nil
		}
		return "", err
	}

	latest, ok, err := p.store.LatestSeason(ctx)
	if err != nil {
		return "", fmt.Errorf("probe season %d: latest: %w", num, err)
	}
	if ok && probe.Label == latest.Label {
		// The server echoed the current season under the probed ordinal.
		return ResultEmpty, nil
	}

	p.log.Info("new season detected",
		zap.Int("season", num), zap.String("label", probe.Label))
	p.enqueueSeason(num, false)
	p.enqueueProbe(num + 1)
	return ResultSaved, nil
}

func (p *ScheduleProbePlanner) enqueueMatch(seasonNum int, seasonID, matchID int64) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl match %d", matchID),
		Run: func(ctx context.Context) (Result, error) {
			raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.MatchURL(p.baseURL, seasonNum, matchID))
			if err != nil {
				return "", err
			}
			page, err := bcl.DecodeMatch(raw, seasonNum, matchID)
			if err != nil {
				if source.IsEmpty(err) {
					return ResultEmpty, nil
				}
				return "", err
			}
			if _, err := p.ing.SaveMatch(ctx, page, seasonID); err != nil {
				return "", err
			}
			return ResultSaved, nil
		},
	})
}

func (p *ScheduleProbePlanner) enqueueTeams(seasonNum int) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl season %d teams", seasonNum),
		Run: func(ctx context.Context) (Result, error) {
			raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.TeamsURL(p.baseURL, seasonNum))
			if err != nil {
				return "", err
			}
			teams, err := bcl.DecodeTeams(raw)
			if err != nil {
				return "", err
			}
			if len(teams) == 0 {
				return ResultEmpty, nil
			}
			if err := p.ing.SaveTeams(ctx, teams); err != nil {
				return "", err
			}
			return ResultSaved, nil
		},
	})
}

// queuePlayersAfterMatches enqueues a unit that, when it runs (after the
// match units queued before it), fans out one unit per season player.
func (p *ScheduleProbePlanner) queuePlayersAfterMatches(seasonNum int, seasonID int64) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl season %d players", seasonNum),
		Run: func(ctx context.Context) (Result, error) {
			ids, err := p.store.SeasonPlayerNativeIDs(ctx, seasonID)
			if err != nil {
				return "", fmt.Errorf("season %d players: %w", seasonNum, err)
			}
			if len(ids) == 0 {
				return ResultEmpty, nil
			}
			for _, id := range ids {
				p.enqueuePlayer(seasonNum, id)
			}
			return ResultSaved, nil
		},
	})
}

func (p *ScheduleProbePlanner) enqueuePlayer(seasonNum int, playerID int64) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl player %d", playerID),
		Run: func(ctx context.Context) (Result, error) {
			raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.PlayerURL(p.baseURL, seasonNum, playerID))
			if err != nil {
				return "", err
			}
			page, err := bcl.DecodePlayer(raw, playerID)
			if err != nil {
				if source.IsEmpty(err) {
					return ResultEmpty, nil
				}
				return "", err
			}
			if _, err := p.ing.SavePlayer(ctx, page); err != nil {
				return "", err
			}
			return ResultSaved, nil
		},
	})
}

func (p *ScheduleProbePlanner) enqueueReferees(seasonNum int) {
	p.queue = append(p.queue, &Unit{
		Label: fmt.Sprintf("bcl season %d referees", seasonNum),
		Run: func(ctx context.Context) (Result, error) {
			raw, err := p.fetcher.Fetch(ctx, record.SourceBCL, bcl.RefereesURL(p.baseURL, seasonNum))
			if err != nil {
				return "", err
			}
			refs, err := bcl.DecodeReferees(raw)
			if err != nil {
				return "", err
			}
			if len(refs) == 0 {
				return ResultEmpty, nil
			}
			if err := p.ing.SaveReferees(ctx, refs); err != nil {
				return "", err
			}
			return ResultSaved, nil
		},
	})
}

// Observe is a no-op: probe termination is queue exhaustion, not an empty
// run.
func (p *ScheduleProbePlanner) Observe(Result) {}

// TotalEstimate is the number of units discovered so far.
func (p *ScheduleProbePlanner) TotalEstimate() int { return len(p.queue) }

var _ Planner = (*ScheduleProbePlanner)(nil)
