// Package job runs crawls. One worker goroutine per active crawl, at most
// one crawl per source. Control commands travel over a buffered channel and
// are consumed only at work-unit boundaries, so a pause or stop never lands
// mid-page. Status is an atomically swapped snapshot: reading it costs a
// pointer load, never a lock held across I/O.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/metrics"
	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
)

// Control errors, returned synchronously to the caller.
var (
	ErrAlreadyRunning    = errors.New("crawl already running for source")
	ErrNotRunning        = errors.New("no active crawl for source")
	ErrInvalidTransition = errors.New("invalid control transition")
)

// State of a crawl.
type State string

// Crawl states. Paused is a sub-state of running entered only between
// units; done, stopped and error are terminal.
const (
	StateIdle     State = "idle"
	StatePlanning State = "planning"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateDone     State = "done"
	StateStopped  State = "stopped"
	StateError    State = "error"
)

func (s State) terminal() bool {
	return s == StateDone || s == StateStopped || s == StateError
}

// Snapshot is the externally visible crawl status. Counters are monotone
// within a run.
type Snapshot struct {
	Source record.Source `json:"source"`
	State  State         `json:"state"`

	Unit    string `json:"unit,omitempty"` // last unit processed
	Found   int    `json:"found"`
	Empty   int    `json:"empty"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
	Total   int    `json:"total,omitempty"` // planner estimate, 0 = open-ended

	StartedAt  time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

type command int

const (
	cmdPause command = iota
	cmdResume
	cmdStop
)

// PlannerFactory builds the planner for one crawl run.
type PlannerFactory func(src record.Source, opts plan.Options) (plan.Planner, error)

// DefaultSystemicErrorThreshold aborts a crawl after this many consecutive
// unit errors: one broken page is noise, a run of them is a dead or
// reshaped site.
const DefaultSystemicErrorThreshold = 10

// Controller starts, pauses, resumes and stops crawls.
type Controller struct {
	factory   PlannerFactory
	log       *zap.Logger
	threshold int

	mu     sync.Mutex
	crawls map[record.Source]*crawl
}

type crawl struct {
	source record.Source
	ctrl   chan command
	done   chan struct{}
	snap   *snapshotBox
}

// NewController builds a Controller. systemicThreshold <= 0 takes the
// default.
func NewController(factory PlannerFactory, systemicThreshold int, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if systemicThreshold <= 0 {
		systemicThreshold = DefaultSystemicErrorThreshold
	}
	return &Controller{
		factory:   factory,
		log:       log,
		threshold: systemicThreshold,
		crawls:    make(map[record.Source]*crawl),
	}
}

// Start launches a crawl for a source. At most one crawl per source may be
// active; a second Start returns ErrAlreadyRunning.
func (c *Controller) Start(ctx context.Context, src record.Source, opts plan.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.crawls[src]; ok && !existing.snap.load().State.terminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, src)
	}

	planner, err := c.factory(src, opts)
	if err != nil {
		return fmt.Errorf("start %s: %w", src, err)
	}

	cr := &crawl{
		source: src,
		ctrl:   make(chan command, 4),
		done:   make(chan struct{}),
		snap:   newSnapshotBox(Snapshot{Source: src, State: StatePlanning, StartedAt: time.Now()}),
	}
	c.crawls[src] = cr

	go c.run(ctx, cr, planner)
	c.log.Info("crawl started", zap.String("source", string(src)))
	return nil
}

// Pause asks the crawl to hold after the unit in flight.
func (c *Controller) Pause(src record.Source) error {
	return c.send(src, cmdPause, StateRunning, StatePlanning)
}

// Resume continues a paused crawl.
func (c *Controller) Resume(src record.Source) error {
	return c.send(src, cmdResume, StatePaused)
}

// Stop terminates the crawl after the unit in flight. Stop is terminal: a
// stopped crawl cannot be resumed, only restarted.
func (c *Controller) Stop(src record.Source) error {
	return c.send(src, cmdStop, StateRunning, StatePaused, StatePlanning)
}

func (c *Controller) send(src record.Source, cmd command, allowed ...State) error {
	c.mu.Lock()
	cr, ok := c.crawls[src]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, src)
	}

	state := cr.snap.load().State
	if state.terminal() {
		return fmt.Errorf("%w: %s", ErrNotRunning, src)
	}
	permitted := false
	for _, s := range allowed {
		if state == s {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, cmdName(cmd), state)
	}

	select {
	case cr.ctrl <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: control queue full", ErrInvalidTransition)
	}
}

func cmdName(cmd command) string {
	switch cmd {
	case cmdPause:
		return "pause"
	case cmdResume:
		return "resume"
	default:
		return "stop"
	}
}

// Status returns the current snapshot for a source. It never blocks on the
// crawl itself.
func (c *Controller) Status(src record.Source) Snapshot {
	c.mu.Lock()
	cr, ok := c.crawls[src]
	c.mu.Unlock()
	if !ok {
		return Snapshot{Source: src, State: StateIdle}
	}
	return cr.snap.load()
}

// Running reports whether a crawl is active (including paused) for a source.
func (c *Controller) Running(src record.Source) bool {
	state := c.Status(src).State
	return state != StateIdle && !state.terminal()
}

// Await blocks until the source's active crawl finishes and returns its
// final snapshot. Without an active crawl it returns immediately.
func (c *Controller) Await(ctx context.Context, src record.Source) (Snapshot, error) {
	c.mu.Lock()
	cr, ok := c.crawls[src]
	c.mu.Unlock()
	if !ok {
		return Snapshot{Source: src, State: StateIdle}, nil
	}
	select {
	case <-cr.done:
		return cr.snap.load(), nil
	case <-ctx.Done():
		return cr.snap.load(), ctx.Err()
	}
}

// run is the worker loop: one unit at a time, control commands observed
// between units.
func (c *Controller) run(ctx context.Context, cr *crawl, planner plan.Planner) {
	defer close(cr.done)

	snap := cr.snap.load()
	errStreak := 0

	finish := func(state State, lastErr string) {
		now := time.Now()
		snap.State = state
		snap.FinishedAt = &now
		if lastErr != "" {
			snap.LastError = lastErr
		}
		cr.snap.store(snap)
		metrics.ObserveCrawlRun(string(cr.source), string(state))
		c.log.Info("crawl finished",
			zap.String("source", string(cr.source)),
			zap.String("state", string(state)),
			zap.Int("found", snap.Found),
			zap.Int("empty", snap.Empty),
			zap.Int("skipped", snap.Skipped),
			zap.Int("errors", snap.Errors))
	}

	for {
		// Unit boundary: drain pending commands, honoring pause.
		stop, err := c.handleCommands(ctx, cr, &snap)
		if err != nil {
			finish(StateStopped, "")
			return
		}
		if stop {
			finish(StateStopped, "")
			return
		}

		unit, err := planner.Next(ctx)
		if err != nil {
			finish(StateError, err.Error())
			return
		}
		if unit == nil {
			finish(StateDone, "")
			return
		}

		snap.State = StateRunning
		snap.Unit = unit.Label
		if est := planner.TotalEstimate(); est > 0 {
			snap.Total = est
		}
		cr.snap.store(snap)

		res, err := unit.Run(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			finish(StateStopped, ctx.Err().Error())
			return
		case err != nil:
			snap.Errors++
			snap.LastError = err.Error()
			errStreak++
			c.log.Warn("unit failed",
				zap.String("source", string(cr.source)),
				zap.String("unit", unit.Label),
				zap.Error(err))
			if errStreak >= c.threshold {
				finish(StateError, fmt.Sprintf("%d consecutive errors, last: %v", errStreak, err))
				return
			}
		default:
			errStreak = 0
			planner.Observe(res)
			metrics.ObserveUnit(string(cr.source), string(res))
			switch res {
			case plan.ResultSaved:
				snap.Found++
			case plan.ResultEmpty:
				snap.Empty++
			case plan.ResultSkipped:
				snap.Skipped++
			}
		}
		cr.snap.store(snap)
	}
}

// handleCommands drains the control channel. A pause blocks here, between
// units, until a resume or stop arrives.
func (c *Controller) handleCommands(ctx context.Context, cr *crawl, snap *Snapshot) (stop bool, err error) {
	for {
		select {
		case cmd := <-cr.ctrl:
			switch cmd {
			case cmdStop:
				return true, nil
			case cmdPause:
				snap.State = StatePaused
				cr.snap.store(*snap)
				c.log.Info("crawl paused", zap.String("source", string(cr.source)))
				if stop, err := c.awaitResume(ctx, cr); stop || err != nil {
					return stop, err
				}
				snap.State = StateRunning
				cr.snap.store(*snap)
				c.log.Info("crawl resumed", zap.String("source", string(cr.source)))
			case cmdResume:
				// Resume while running: nothing to do.
			}
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			return false, nil
		}
	}
}

func (c *Controller) awaitResume(ctx context.Context, cr *crawl) (stop bool, err error) {
	for {
		select {
		case cmd := <-cr.ctrl:
			switch cmd {
			case cmdResume:
				return false, nil
			case cmdStop:
				return true, nil
			}
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
