package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
)

// scriptPlanner emits a fixed number of units. Each unit blocks until a
// token is sent on release, so tests control exactly when unit boundaries
// happen.
type scriptPlanner struct {
	mu       sync.Mutex
	units    int
	emitted  int
	runs     int
	observed []plan.Result
	release  chan struct{}
	runErr   error
}

func newScriptPlanner(units int) *scriptPlanner {
	return &scriptPlanner{units: units, release: make(chan struct{}, units+16)}
}

func (p *scriptPlanner) Next(context.Context) (*plan.Unit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.emitted >= p.units {
		return nil, nil
	}
	p.emitted++
	return &plan.Unit{
		Label: "unit",
		Run: func(ctx context.Context) (plan.Result, error) {
			select {
			case <-p.release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			p.mu.Lock()
			p.runs++
			err := p.runErr
			p.mu.Unlock()
			if err != nil {
				return "", err
			}
			return plan.ResultSaved, nil
		},
	}, nil
}

func (p *scriptPlanner) Observe(res plan.Result) {
	p.mu.Lock()
	p.observed = append(p.observed, res)
	p.mu.Unlock()
}

func (p *scriptPlanner) TotalEstimate() int { return p.units }

func (p *scriptPlanner) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func factoryFor(p plan.Planner) PlannerFactory {
	return func(record.Source, plan.Options) (plan.Planner, error) {
		return p, nil
	}
}

func releaseAll(p *scriptPlanner, n int) {
	for i := 0; i < n; i++ {
		p.release <- struct{}{}
	}
}

func TestControllerRunsToCompletion(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(5)
	releaseAll(p, 5)
	c := NewController(factoryFor(p), 0, nil)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx, record.SourceVolleyMSK, plan.Options{}))

	snap, err := c.Await(ctx, record.SourceVolleyMSK)
	require.NoError(t, err)
	require.Equal(t, StateDone, snap.State)
	require.Equal(t, 5, snap.Found)
	require.Zero(t, snap.Errors)
	require.NotNil(t, snap.FinishedAt)
	require.Len(t, p.observed, 5)
	require.False(t, c.Running(record.SourceVolleyMSK))
}

func TestControllerRejectsSecondStart(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(1)
	c := NewController(factoryFor(p), 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceBCL, plan.Options{}))
	err := c.Start(ctx, record.SourceBCL, plan.Options{})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	releaseAll(p, 1)
	snap, err := c.Await(ctx, record.SourceBCL)
	require.NoError(t, err)
	require.Equal(t, StateDone, snap.State)

	// After completion the source can be started again.
	require.NoError(t, c.Start(ctx, record.SourceBCL, plan.Options{}))
}

func TestControllerPauseResume(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(2)
	c := NewController(factoryFor(p), 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceVolleyMSK, plan.Options{}))

	// Pause lands while the first unit is in flight; it takes effect at the
	// next unit boundary.
	require.Eventually(t, func() bool {
		return c.Status(record.SourceVolleyMSK).State == StateRunning
	}, time.Second, time.Millisecond)
	require.NoError(t, c.Pause(record.SourceVolleyMSK))

	releaseAll(p, 1)
	require.Eventually(t, func() bool {
		return c.Status(record.SourceVolleyMSK).State == StatePaused
	}, time.Second, time.Millisecond)

	// The in-flight unit completed; nothing ran past the boundary.
	snap := c.Status(record.SourceVolleyMSK)
	require.Equal(t, 1, snap.Found)
	require.Equal(t, 1, p.runCount())

	// Pausing a paused crawl is rejected.
	require.ErrorIs(t, c.Pause(record.SourceVolleyMSK), ErrInvalidTransition)

	require.NoError(t, c.Resume(record.SourceVolleyMSK))
	releaseAll(p, 1)

	final, err := c.Await(ctx, record.SourceVolleyMSK)
	require.NoError(t, err)
	require.Equal(t, StateDone, final.State)
	require.Equal(t, 2, final.Found)
	require.Equal(t, 2, p.runCount())
}

func TestControllerStopIsTerminal(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(10)
	c := NewController(factoryFor(p), 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceVolleyMSK, plan.Options{}))
	require.NoError(t, c.Stop(record.SourceVolleyMSK))
	releaseAll(p, 1)

	snap, err := c.Await(ctx, record.SourceVolleyMSK)
	require.NoError(t, err)
	require.Equal(t, StateStopped, snap.State)

	// No resume out of stopped.
	require.ErrorIs(t, c.Resume(record.SourceVolleyMSK), ErrNotRunning)
	require.ErrorIs(t, c.Stop(record.SourceVolleyMSK), ErrNotRunning)
}

func TestControllerStopWhilePaused(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(10)
	c := NewController(factoryFor(p), 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceVolleyMSK, plan.Options{}))
	require.Eventually(t, func() bool {
		return c.Status(record.SourceVolleyMSK).State == StateRunning
	}, time.Second, time.Millisecond)
	require.NoError(t, c.Pause(record.SourceVolleyMSK))
	releaseAll(p, 1)
	require.Eventually(t, func() bool {
		return c.Status(record.SourceVolleyMSK).State == StatePaused
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Stop(record.SourceVolleyMSK))
	snap, err := c.Await(ctx, record.SourceVolleyMSK)
	require.NoError(t, err)
	require.Equal(t, StateStopped, snap.State)
	require.Equal(t, 1, p.runCount())
}

func TestControllerSystemicErrorsAbort(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(100)
	p.runErr = errors.New("connection refused")
	releaseAll(p, 100)
	c := NewController(factoryFor(p), 3, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceBCL, plan.Options{}))
	snap, err := c.Await(ctx, record.SourceBCL)
	require.NoError(t, err)
	require.Equal(t, StateError, snap.State)
	require.Equal(t, 3, snap.Errors)
	require.Contains(t, snap.LastError, "connection refused")

	// Errored units are never observed.
	require.Empty(t, p.observed)
}

func TestControllerControlsRequireActiveCrawl(t *testing.T) {
	t.Parallel()
	c := NewController(factoryFor(newScriptPlanner(0)), 0, nil)

	require.ErrorIs(t, c.Pause(record.SourceVolleyMSK), ErrNotRunning)
	require.ErrorIs(t, c.Resume(record.SourceVolleyMSK), ErrNotRunning)
	require.ErrorIs(t, c.Stop(record.SourceVolleyMSK), ErrNotRunning)
	require.Equal(t, StateIdle, c.Status(record.SourceVolleyMSK).State)
}

func TestControllerResumeWhileRunningRejected(t *testing.T) {
	t.Parallel()
	p := newScriptPlanner(1)
	c := NewController(factoryFor(p), 0, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, record.SourceVolleyMSK, plan.Options{}))
	require.Eventually(t, func() bool {
		return c.Status(record.SourceVolleyMSK).State == StateRunning
	}, time.Second, time.Millisecond)
	require.ErrorIs(t, c.Resume(record.SourceVolleyMSK), ErrInvalidTransition)

	releaseAll(p, 1)
	_, err := c.Await(ctx, record.SourceVolleyMSK)
	require.NoError(t, err)
}
