// Package autoupdate periodically tops up both sources with whatever has
// appeared since the last crawl. A tick never queues work: if a source is
// already busy the tick is recorded as skipped and the next tick tries
// again.
package autoupdate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/job"
	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
)

// DefaultInterval between update passes.
const DefaultInterval = 3600 * time.Second

// DefaultStartDelay before the first pass, so the process finishes wiring
// and serving before it starts fetching.
const DefaultStartDelay = 5 * time.Second

// OutcomeSkippedBusy marks a tick that found the source already crawling.
const OutcomeSkippedBusy = "skipped: busy"

// RunRecord is the result of one update attempt for one source.
type RunRecord struct {
	Timestamp  time.Time     `json:"timestamp"`
	Source     record.Source `json:"source"`
	Outcome    string        `json:"outcome"`
	ItemsFound int           `json:"items_found"`
}

// Config tunes the daemon.
type Config struct {
	Interval   time.Duration
	StartDelay time.Duration
	Sources    []record.Source
}

// Daemon drives periodic skip-existing crawls through the job controller.
type Daemon struct {
	ctrl *job.Controller
	cfg  Config
	log  *zap.Logger

	mu   sync.Mutex
	last map[record.Source]RunRecord
}

// New builds a Daemon. Zero interval and start delay take the defaults;
// empty sources default to both sites.
func New(ctrl *job.Controller, cfg Config, log *zap.Logger) *Daemon {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.StartDelay < 0 {
		cfg.StartDelay = 0
	} else if cfg.StartDelay == 0 {
		cfg.StartDelay = DefaultStartDelay
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []record.Source{record.SourceVolleyMSK, record.SourceBCL}
	}
	return &Daemon{
		ctrl: ctrl,
		cfg:  cfg,
		log:  log,
		last: make(map[record.Source]RunRecord),
	}
}

// Run blocks until ctx is canceled, running one update pass after the start
// delay and one per interval tick after that.
func (d *Daemon) Run(ctx context.Context) {
	select {
	case <-time.After(d.cfg.StartDelay):
	case <-ctx.Done():
		return
	}
	d.runPass(ctx)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.runPass(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// runPass updates each source in turn, waiting for one crawl to finish
// before starting the next so the pass never competes with itself.
func (d *Daemon) runPass(ctx context.Context) {
	for _, src := range d.cfg.Sources {
		if ctx.Err() != nil {
			return
		}
		d.updateSource(ctx, src)
	}
}

func (d *Daemon) updateSource(ctx context.Context, src record.Source) {
	rec := RunRecord{Timestamp: time.Now(), Source: src}

	if d.ctrl.Running(src) {
		rec.Outcome = OutcomeSkippedBusy
		d.record(rec)
		d.log.Info("update skipped, source busy", zap.String("source", string(src)))
		return
	}

	err := d.ctrl.Start(ctx, src, plan.Options{SkipExisting: true})
	switch {
	case errors.Is(err, job.ErrAlreadyRunning):
		// Lost the race to a manual start between the check and here.
		rec.Outcome = OutcomeSkippedBusy
		d.record(rec)
		return
	case err != nil:
		rec.Outcome = "start failed: " + err.Error()
		d.record(rec)
		d.log.Error("update start failed", zap.String("source", string(src)), zap.Error(err))
		return
	}

	snap, err := d.ctrl.Await(ctx, src)
	if err != nil {
		rec.Outcome = "interrupted: " + err.Error()
		d.record(rec)
		return
	}
	rec.Outcome = string(snap.State)
	rec.ItemsFound = snap.Found
	d.record(rec)
	d.log.Info("update finished",
		zap.String("source", string(src)),
		zap.String("outcome", rec.Outcome),
		zap.Int("items_found", rec.ItemsFound))
}

func (d *Daemon) record(rec RunRecord) {
	d.mu.Lock()
	d.last[rec.Source] = rec
	d.mu.Unlock()
}

// LastRuns returns the most recent attempt per source.
func (d *Daemon) LastRuns() map[record.Source]RunRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[record.Source]RunRecord, len(d.last))
	for src, rec := range d.last {
		out[src] = rec
	}
	return out
}
