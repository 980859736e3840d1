package progress

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func TestSnapshotIdleBeforeStart(t *testing.T) {
	p := NewPresenter(DemoConfig())
	snap := p.Snapshot(t0)
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Percent)
	assert.Len(t, snap.Checklist, len(DefaultChecklist))
}

func TestProgressIsLinearAndReaches100AtTotal(t *testing.T) {
	p := NewPresenter(DemoConfig())
	p.Start(t0)

	assert.Equal(t, 0.0, p.Snapshot(t0).Percent)
	assert.InDelta(t, 50.0, p.Snapshot(t0.Add(3500*time.Millisecond)).Percent, 0.001)
	assert.InDelta(t, 100.0, p.Snapshot(t0.Add(7*time.Second)).Percent, 0.001)
	assert.Equal(t, 100.0, p.Snapshot(t0.Add(30*time.Second)).Percent)
	assert.Equal(t, "50%", p.Snapshot(t0.Add(3500*time.Millisecond)).PercentLabel())
}

func TestStatesFollowTheClockOnly(t *testing.T) {
	p := NewPresenter(DemoConfig())
	p.Start(t0)

	assert.Equal(t, StateAnimating, p.Snapshot(t0.Add(6999*time.Millisecond)).State)
	assert.Equal(t, StateFading, p.Snapshot(t0.Add(7*time.Second)).State)
	// the backend never completed, the presenter still finishes
	snap := p.Snapshot(t0.Add(7500 * time.Millisecond))
	assert.Equal(t, StateDone, snap.State)
	assert.False(t, snap.Completed)
}

func TestWaitForCompletionHoldsTheFade(t *testing.T) {
	cfg := DemoConfig()
	cfg.WaitForCompletion = true
	p := NewPresenter(cfg)
	p.Start(t0)

	snap := p.Snapshot(t0.Add(20 * time.Second))
	assert.Equal(t, StateAnimating, snap.State)
	assert.Equal(t, 100.0, snap.Percent)

	p.Complete(t0.Add(10 * time.Second))
	assert.Equal(t, StateFading, p.Snapshot(t0.Add(10200*time.Millisecond)).State)
	assert.Equal(t, StateDone, p.Snapshot(t0.Add(10500*time.Millisecond)).State)
}

func TestWaitForCompletionKeepsMinimumDwell(t *testing.T) {
	cfg := DemoConfig()
	cfg.WaitForCompletion = true
	p := NewPresenter(cfg)
	p.Start(t0)
	p.Complete(t0.Add(time.Second))

	assert.Equal(t, StateAnimating, p.Snapshot(t0.Add(3*time.Second)).State)
	assert.Equal(t, StateDone, p.Snapshot(t0.Add(7500*time.Millisecond)).State)
}

func TestMessageFactAndChecklistRotation(t *testing.T) {
	p := NewPresenter(DemoConfig())
	p.Start(t0)

	s := p.Snapshot(t0)
	assert.Equal(t, DefaultMessages[0], s.Message)
	assert.Equal(t, DefaultFacts[0], s.Fact)
	assert.Zero(t, s.Revealed)

	s = p.Snapshot(t0.Add(2500 * time.Millisecond))
	assert.Equal(t, DefaultMessages[2], s.Message)
	assert.Equal(t, DefaultFacts[1], s.Fact)
	assert.Equal(t, 1, s.Revealed)
	assert.True(t, s.Checklist[0].Visible)
	assert.False(t, s.Checklist[1].Visible)

	// messages cycle every 6 * 1.2s
	s = p.Snapshot(t0.Add(14500 * time.Millisecond))
	assert.Equal(t, DefaultMessages[0], s.Message)
	assert.Equal(t, len(DefaultChecklist), s.Revealed)
}

func TestStartTwiceKeepsFirstStart(t *testing.T) {
	p := NewPresenter(DemoConfig())
	p.Start(t0)
	p.Start(t0.Add(5 * time.Second))
	assert.Equal(t, t0, p.StartedAt())
}

func TestRunEmitsUntilDone(t *testing.T) {
	cfg := DemoConfig()
	cfg.Total = 50 * time.Millisecond
	cfg.Tick = 10 * time.Millisecond
	cfg.Fade = 10 * time.Millisecond
	p := NewPresenter(cfg)

	var last Snapshot
	count := 0
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx, func(s Snapshot) {
		last = s
		count++
	}))
	assert.Equal(t, StateDone, last.State)
	assert.Equal(t, 100.0, last.Percent)
	assert.Greater(t, count, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := NewPresenter(DemoConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx, func(Snapshot) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTotalShorterThanTickIsOneStep(t *testing.T) {
	p := NewPresenter(Config{Total: 50 * time.Millisecond, Tick: 100 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, p.Config().Total)
	p.Start(t0)

	snap := p.Snapshot(t0.Add(10 * time.Millisecond))
	assert.False(t, math.IsNaN(snap.Percent))
	assert.Zero(t, snap.Percent)
	assert.Equal(t, "0%", snap.PercentLabel())
	_, err := json.Marshal(snap)
	require.NoError(t, err)

	snap = p.Snapshot(t0.Add(100 * time.Millisecond))
	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, StateDone, p.Snapshot(t0.Add(time.Second)).State)
}
