// Package controller owns the dashboard and insights tracks and decides
// which fetch result becomes the canonical model.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/internal/insights"
)

// DashboardFetcher returns the raw dashboard payload for a period.
type DashboardFetcher interface {
	Dashboard(ctx context.Context, period dashboard.Period) ([]byte, error)
}

// InsightsLoader produces a normalised insights model.
type InsightsLoader interface {
	Load(ctx context.Context) (insights.ViewModel, error)
}

// Invalidator drops cached upstream payloads before a manual refresh.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Observer counts track outcomes.
type Observer interface {
	ObserveTrack(track, outcome string)
}

// Config wires the controller dependencies. Generator is required; the
// rest are optional.
type Config struct {
	Dashboard   DashboardFetcher
	Insights    InsightsLoader
	Invalidator Invalidator
	Generator   *dashboard.Generator
	Logger      *slog.Logger
	Observer    Observer
}

// Controller serialises state transitions for both tracks. Fetches run
// outside the lock; each cycle carries a sequence token and results from
// superseded cycles are discarded on arrival.
type Controller struct {
	fetcher     DashboardFetcher
	loader      InsightsLoader
	invalidator Invalidator
	generator   *dashboard.Generator
	logger      *slog.Logger
	observer    Observer
	now         func() time.Time

	mu       sync.Mutex
	dash     DashboardState
	dashSeq  uint64
	ins      InsightsState
	insSeq   uint64
	subs     map[int]func(Event)
	nextSub  int
	notifyMu sync.Mutex
}

// New constructs a Controller with Track A loading and Track B idle.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gen := cfg.Generator
	if gen == nil {
		gen = dashboard.NewGenerator(nil)
	}
	return &Controller{
		fetcher:     cfg.Dashboard,
		loader:      cfg.Insights,
		invalidator: cfg.Invalidator,
		generator:   gen,
		logger:      logger,
		observer:    cfg.Observer,
		now:         time.Now,
		dash:        DashboardState{Status: DashboardLoading, Period: dashboard.DefaultPeriod},
		ins:         InsightsState{Status: InsightsIdle},
		subs:        make(map[int]func(Event)),
	}
}

// WithNow overrides the clock used for UpdatedAt stamps.
func (c *Controller) WithNow(now func() time.Time) *Controller {
	if c != nil && now != nil {
		c.now = now
	}
	return c
}

// Dashboard returns the current Track A snapshot.
func (c *Controller) Dashboard() DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dash
}

// Insights returns the current Track B snapshot.
func (c *Controller) Insights() InsightsState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ins
}

// Period returns the most recently selected period.
func (c *Controller) Period() dashboard.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dash.Period
}

// Subscribe registers fn for every transition and returns a function that
// removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// SelectPeriod runs a Track A cycle for period and returns the snapshot
// after the cycle settles. A superseded cycle returns the current snapshot
// unchanged.
func (c *Controller) SelectPeriod(ctx context.Context, period dashboard.Period) DashboardState {
	if !period.Valid() {
		period = dashboard.DefaultPeriod
	}
	seq := c.beginDashboard(period)
	model, source := c.loadDashboard(context.WithoutCancel(ctx), period)
	return c.finishDashboard(seq, model, source)
}

// RefreshDashboard invalidates cached payloads and re-runs the current
// period.
func (c *Controller) RefreshDashboard(ctx context.Context) DashboardState {
	if c.invalidator != nil {
		if err := c.invalidator.Invalidate(ctx); err != nil {
			c.logger.Warn("invalidate upstream cache", slog.Any("error", err))
		}
	}
	return c.SelectPeriod(ctx, c.Period())
}

// ActivateInsights starts a Track B cycle each time the insights view is
// opened. An activation while a load is in flight joins it and returns the
// Loading snapshot.
func (c *Controller) ActivateInsights(ctx context.Context) InsightsState {
	seq, ok := c.beginInsights(func(s InsightsStatus) bool { return s != InsightsLoading })
	if !ok {
		return c.Insights()
	}
	return c.runInsights(ctx, seq)
}

// RefreshInsights starts a new Track B cycle from any state. A cycle
// already in flight is superseded and its result discarded.
func (c *Controller) RefreshInsights(ctx context.Context) InsightsState {
	seq, _ := c.beginInsights(func(InsightsStatus) bool { return true })
	return c.runInsights(ctx, seq)
}

func (c *Controller) beginDashboard(period dashboard.Period) uint64 {
	c.mu.Lock()
	c.dashSeq++
	seq := c.dashSeq
	c.dash.Period = period
	c.dash.Seq = seq
	if c.dash.Model == nil {
		c.dash.Status = DashboardLoading
	} else {
		c.dash.Status = DashboardReady
		c.dash.Refreshing = true
	}
	snapshot := c.dash
	c.mu.Unlock()

	c.publish(Event{Track: TrackDashboard, Dashboard: snapshot})
	return seq
}

func (c *Controller) loadDashboard(ctx context.Context, period dashboard.Period) (dashboard.ViewModel, Source) {
	logger := c.logger.With(slog.String("track", string(TrackDashboard)), slog.String("period", period.String()))
	if c.fetcher == nil {
		logger.Warn("dashboard upstream not configured, using synthetic data")
		return c.generator.Generate(period), SourceSynthetic
	}
	body, err := c.fetcher.Dashboard(ctx, period)
	if err == nil {
		vm, adoptErr := dashboard.Adopt(body, period)
		if adoptErr == nil {
			return vm, SourceLive
		}
		err = adoptErr
	}
	logger.Warn("dashboard fetch failed, using synthetic data", slog.Any("error", err))
	return c.generator.Generate(period), SourceSynthetic
}

func (c *Controller) finishDashboard(seq uint64, model dashboard.ViewModel, source Source) DashboardState {
	c.mu.Lock()
	if seq < c.dashSeq {
		snapshot := c.dash
		c.mu.Unlock()
		c.observe(TrackDashboard, "stale")
		c.logger.Debug("discarding superseded dashboard result", slog.Uint64("seq", seq), slog.Uint64("current", snapshot.Seq))
		return snapshot
	}
	c.dash = DashboardState{
		Status:    DashboardReady,
		Period:    model.Period,
		Source:    source,
		Model:     &model,
		Seq:       seq,
		UpdatedAt: c.now(),
	}
	snapshot := c.dash
	c.mu.Unlock()

	c.observe(TrackDashboard, string(source))
	c.publish(Event{Track: TrackDashboard, Dashboard: snapshot})
	return snapshot
}

func (c *Controller) beginInsights(allowed func(InsightsStatus) bool) (uint64, bool) {
	c.mu.Lock()
	if !allowed(c.ins.Status) {
		c.mu.Unlock()
		return 0, false
	}
	c.insSeq++
	c.ins.Seq = c.insSeq
	c.ins.Status = InsightsLoading
	c.ins.Error = ""
	snapshot := c.ins
	seq := c.insSeq
	c.mu.Unlock()

	c.publish(Event{Track: TrackInsights, Insights: snapshot})
	return seq, true
}

func (c *Controller) runInsights(ctx context.Context, seq uint64) InsightsState {
	var (
		model insights.ViewModel
		err   error
	)
	if c.loader == nil {
		err = insights.ErrUnavailable
	} else {
		model, err = c.loader.Load(context.WithoutCancel(ctx))
	}

	c.mu.Lock()
	if seq < c.insSeq {
		snapshot := c.ins
		c.mu.Unlock()
		c.observe(TrackInsights, "stale")
		return snapshot
	}
	if err != nil {
		c.ins = InsightsState{Status: InsightsFailed, Error: err.Error(), Seq: seq, UpdatedAt: c.now()}
	} else {
		c.ins = InsightsState{Status: InsightsReady, Model: &model, Seq: seq, UpdatedAt: c.now()}
	}
	snapshot := c.ins
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("insights fetch failed", slog.String("track", string(TrackInsights)), slog.Any("error", err))
		c.observe(TrackInsights, "failed")
	} else {
		c.observe(TrackInsights, "ready")
	}
	c.publish(Event{Track: TrackInsights, Insights: snapshot})
	return snapshot
}

func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (c *Controller) observe(track Track, outcome string) {
	if c.observer != nil {
		c.observer.ObserveTrack(string(track), outcome)
	}
}
