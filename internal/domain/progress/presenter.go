package progress

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// State of the presenter.
type State string

const (
	StateIdle      State = "idle"
	StateAnimating State = "animating"
	StateFading    State = "fading"
	StateDone      State = "done"
)

// Config controls the animation schedule. The schedule is wall-clock
// driven and does not follow the backend's real progress unless
// WaitForCompletion is set.
type Config struct {
	Total           time.Duration `yaml:"total"`
	Tick            time.Duration `yaml:"tick"`
	MessageInterval time.Duration `yaml:"messageInterval"`
	FactInterval    time.Duration `yaml:"factInterval"`
	StatusInterval  time.Duration `yaml:"statusInterval"`
	Fade            time.Duration `yaml:"fade"`

	// WaitForCompletion holds the fade until the run reports completion.
	// Off by default: reaching 100% does not mean the backend finished.
	WaitForCompletion bool `yaml:"waitForCompletion"`

	Messages  []string `yaml:"-"`
	Facts     []string `yaml:"-"`
	Checklist []string `yaml:"-"`
}

var (
	DefaultMessages = []string{
		"Initializing security protocols",
		"Analyzing compliance frameworks",
		"Checking policy documentation",
		"Preparing risk assessment",
		"Finalizing security checks",
		"Almost ready...",
	}
	DefaultFacts = []string{
		"Did you know? 95% of cybersecurity breaches are caused by human error.",
		"Interesting: The average cost of a data breach is $4.24 million.",
		"Fact: Companies that implement automated compliance monitoring reduce audit time by 40%.",
		"Tip: Regular security assessments can prevent 85% of potential breaches.",
		"Stat: Organizations with strong compliance programs are 50% less likely to experience security incidents.",
	}
	DefaultChecklist = []string{
		"Documents received",
		"Framework requirements extracted",
		"Policy coverage mapped",
		"Infrastructure checks queued",
		"Remediation tickets drafted",
	}
)

// DefaultConfig is the schedule of the analysis loading page.
func DefaultConfig() Config {
	return Config{
		Total:           120 * time.Second,
		Tick:            100 * time.Millisecond,
		MessageInterval: 8500 * time.Millisecond,
		FactInterval:    2 * time.Second,
		StatusInterval:  1500 * time.Millisecond,
		Fade:            500 * time.Millisecond,
		Messages:        DefaultMessages,
		Facts:           DefaultFacts,
		Checklist:       DefaultChecklist,
	}
}

// DemoConfig is the short schedule used when no analysis is pending.
func DemoConfig() Config {
	c := DefaultConfig()
	c.Total = 7 * time.Second
	c.MessageInterval = 1200 * time.Millisecond
	return c
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Total <= 0 {
		c.Total = d.Total
	}
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	// at least one tick, so the fill has a step to divide by
	if c.Total < c.Tick {
		c.Total = c.Tick
	}
	if c.MessageInterval <= 0 {
		c.MessageInterval = d.MessageInterval
	}
	if c.FactInterval <= 0 {
		c.FactInterval = d.FactInterval
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.Fade < 0 {
		c.Fade = 0
	}
	if len(c.Messages) == 0 {
		c.Messages = d.Messages
	}
	if len(c.Facts) == 0 {
		c.Facts = d.Facts
	}
	if len(c.Checklist) == 0 {
		c.Checklist = d.Checklist
	}
	return c
}

// ChecklistItem is one staged status line.
type ChecklistItem struct {
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// Snapshot is what the page shows at one instant.
type Snapshot struct {
	State     State           `json:"state"`
	Percent   float64         `json:"percent"`
	Message   string          `json:"message"`
	Fact      string          `json:"fact"`
	Revealed  int             `json:"revealed"`
	Checklist []ChecklistItem `json:"checklist"`
	Elapsed   time.Duration   `json:"-"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Completed bool            `json:"completed"`
}

// PercentLabel is the rounded percentage text.
func (s Snapshot) PercentLabel() string {
	return fmt.Sprintf("%d%%", int(math.Round(s.Percent)))
}

// Presenter is a time-driven state machine: idle, animating, fading, done.
// Snapshots are a pure function of the elapsed time, so callers may poll
// at any rate.
type Presenter struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	completedAt time.Time
}

func NewPresenter(cfg Config) *Presenter {
	return &Presenter{cfg: cfg.WithDefaults()}
}

// Config returns the effective schedule.
func (p *Presenter) Config() Config { return p.cfg }

// Start enters the animating state. Starting twice keeps the first time.
func (p *Presenter) Start(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}
}

// Complete records that the concurrent analysis call returned.
func (p *Presenter) Complete(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completedAt.IsZero() {
		p.completedAt = now
	}
}

// StartedAt returns the start time, zero while idle.
func (p *Presenter) StartedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.startedAt
}

// Snapshot computes the visible state at now.
func (p *Presenter) Snapshot(now time.Time) Snapshot {
	p.mu.RLock()
	started, completed := p.startedAt, p.completedAt
	p.mu.RUnlock()

	cfg := p.cfg
	snap := Snapshot{State: StateIdle, Completed: !completed.IsZero()}
	snap.Checklist = make([]ChecklistItem, len(cfg.Checklist))
	for i, label := range cfg.Checklist {
		snap.Checklist[i] = ChecklistItem{Label: label}
	}
	if started.IsZero() || now.Before(started) {
		return snap
	}

	elapsed := now.Sub(started)
	snap.Elapsed = elapsed
	snap.ElapsedMS = elapsed.Milliseconds()

	// linear fill: Total/Tick increments, 100% exactly at Total
	steps := float64(cfg.Total / cfg.Tick)
	ticks := float64(elapsed / cfg.Tick)
	snap.Percent = math.Min(100, ticks*100/steps)

	snap.Message = cfg.Messages[int(elapsed/cfg.MessageInterval)%len(cfg.Messages)]
	snap.Fact = cfg.Facts[int(elapsed/cfg.FactInterval)%len(cfg.Facts)]

	snap.Revealed = int(elapsed / cfg.StatusInterval)
	if snap.Revealed > len(cfg.Checklist) {
		snap.Revealed = len(cfg.Checklist)
	}
	for i := 0; i < snap.Revealed; i++ {
		snap.Checklist[i].Visible = true
	}

	fadeAt := cfg.Total
	if cfg.WaitForCompletion {
		if completed.IsZero() {
			snap.State = StateAnimating
			return snap
		}
		if c := completed.Sub(started); c > fadeAt {
			fadeAt = c
		}
	}

	switch {
	case elapsed < fadeAt:
		snap.State = StateAnimating
	case elapsed < fadeAt+cfg.Fade:
		snap.State = StateFading
	default:
		snap.State = StateDone
	}
	return snap
}

// Run drives the presenter from a ticker, emitting a snapshot every tick
// until the done state or until ctx ends.
func (p *Presenter) Run(ctx context.Context, emit func(Snapshot)) error {
	p.Start(time.Now())
	ticker := time.NewTicker(p.cfg.Tick)
	defer ticker.Stop()

	emit(p.Snapshot(time.Now()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			snap := p.Snapshot(now)
			emit(snap)
			if snap.State == StateDone {
				return nil
			}
		}
	}
}
