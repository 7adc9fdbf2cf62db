// Package engine drives one market simulation run: a simulated clock
// advanced by wall-clock ticks, periodic LLM-backed event generation, and
// price recomputation for every affected instrument.
//
// An engine instance is single-owner cooperative: Update must not be
// re-entered concurrently. Control methods (Start/Pause/Stop and the
// setters) may be called from other goroutines; a mutex keeps state
// transitions consistent with the tick loop.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sams-market/simengine/internal/announcer"
	"github.com/sams-market/simengine/internal/logger"
	"github.com/sams-market/simengine/internal/market"
	"github.com/sams-market/simengine/internal/models"
	"github.com/sams-market/simengine/internal/pricing"
	"github.com/sams-market/simengine/internal/sector"
	"github.com/sams-market/simengine/internal/storage"
	"github.com/sams-market/simengine/internal/weights"
)

// State is the engine's lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// validSpeeds are the accepted simulated-hours-per-wall-second multipliers.
var validSpeeds = map[float64]bool{1: true, 2: true, 5: true, 10: true}

// fixedMediaCredibility weights aggregated event impact during price
// recomputation; per-outlet credibility only shapes article generation.
const fixedMediaCredibility = 0.8

// maxPastEvents bounds the rolling event history handed to the announcer
// as prompt context.
const maxPastEvents = 20

// SimulationEvent is an occurred event with its resolved market effect.
type SimulationEvent struct {
	Event               models.Event `json:"event"`
	AffectedInstruments []string     `json:"affected_instruments"`
	MarketImpact        float64      `json:"market_impact"`
	SimulatedTime       time.Time    `json:"simulated_time"`
}

// Callbacks is the observer surface the host wires into a run. All hooks
// are invoked synchronously after the corresponding state mutation; nil
// hooks are skipped.
type Callbacks struct {
	OnPriceChange func(ticker string, oldPrice, newPrice, changeRate float64, volume int64, simTime time.Time)
	OnEventOccur  func(ev SimulationEvent)
	OnNewsUpdate  func(news models.News)
}

// Config holds the per-run tunables.
type Config struct {
	SimID         string
	Speed         float64       // simulated hours per wall-clock second
	EventInterval time.Duration // simulated time between event batches
	EventCount    int           // events per batch
	RecencyWindow time.Duration // simulated span an event keeps moving prices
	NewsEnabled   bool
	Categories    []string // allow-list for generated events; empty = free
}

// Validate checks the run configuration.
func (c *Config) Validate() error {
	if c.SimID == "" {
		return fmt.Errorf("sim ID must not be empty")
	}
	if !validSpeeds[c.Speed] {
		return fmt.Errorf("speed %v must be one of 1, 2, 5, 10", c.Speed)
	}
	if c.EventInterval <= 0 {
		return fmt.Errorf("event interval must be positive")
	}
	if c.EventCount < 1 {
		return fmt.Errorf("event count must be at least 1")
	}
	return nil
}

// Deps are the engine's collaborators. Store and Realistic are optional;
// Now and Rng default when nil.
type Deps struct {
	Announcer *announcer.Announcer
	Store     *storage.Storage
	Linear    *pricing.Linear
	Realistic *pricing.Realistic
	Callbacks Callbacks
	Now       func() time.Time
	Rng       *rand.Rand
}

// Engine owns the state of one simulation run.
type Engine struct {
	mu sync.Mutex

	cfg         Config
	deps        Deps
	params      market.Params
	pending     *market.Params
	outlets     []models.Outlet
	universe    []string
	positions   map[string]*models.InstrumentState
	baseVolumes map[string]int64

	state         State
	simStart      time.Time
	simTime       time.Time
	lastTick      time.Time
	lastEventTime time.Time
	recentEvents  []SimulationEvent
	pastEvents    []models.Event
}

// New creates an engine for one run.
func New(cfg Config, params market.Params, instruments []models.InstrumentState, outlets []models.Outlet, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Announcer == nil {
		return nil, fmt.Errorf("announcer is required")
	}
	if deps.Linear == nil {
		return nil, fmt.Errorf("pricing model is required")
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("at least one instrument is required")
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = time.Hour
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rng == nil {
		deps.Rng = rand.New(rand.NewSource(rand.Int63()))
	}

	positions := make(map[string]*models.InstrumentState, len(instruments))
	baseVolumes := make(map[string]int64, len(instruments))
	universe := make([]string, 0, len(instruments))
	for i := range instruments {
		inst := instruments[i]
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("instrument %s: %w", inst.Ticker, err)
		}
		positions[inst.Ticker] = &inst
		baseVolumes[inst.Ticker] = inst.Volume
		universe = append(universe, inst.Ticker)
	}

	return &Engine{
		cfg:         cfg,
		deps:        deps,
		params:      params,
		outlets:     outlets,
		universe:    universe,
		positions:   positions,
		baseVolumes: baseVolumes,
		state:       StateStopped,
	}, nil
}

// Start begins a stopped run or resumes a paused one. Resuming keeps the
// original simulation start time and clock.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateStopped:
		now := e.deps.Now()
		e.simStart = now
		e.simTime = now
		e.lastTick = now
		e.lastEventTime = now
		e.recentEvents = nil
		e.pastEvents = nil
		e.state = StateRunning
		logger.Info("simulation %s started at speed %vx", e.cfg.SimID, e.cfg.Speed)
	case StatePaused:
		// Wall time spent paused must not advance the simulated clock.
		e.lastTick = e.deps.Now()
		e.state = StateRunning
		logger.Info("simulation %s resumed", e.cfg.SimID)
	}
}

// Pause suspends a running simulation. No-op in any other state.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		e.state = StatePaused
		logger.Info("simulation %s paused", e.cfg.SimID)
	}
}

// Stop ends the run from any state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateStopped {
		e.state = StateStopped
		logger.Info("simulation %s stopped", e.cfg.SimID)
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SimulatedTime reports the simulated clock.
func (e *Engine) SimulatedTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simTime
}

// StartedAt reports when the run entered RUNNING for the first time.
func (e *Engine) StartedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simStart
}

// SetSpeed changes the clock multiplier, effective from the next tick.
func (e *Engine) SetSpeed(speed float64) error {
	if !validSpeeds[speed] {
		return fmt.Errorf("speed %v must be one of 1, 2, 5, 10", speed)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Speed = speed
	return nil
}

// SetMarketParams replaces the market parameters. The new bundle takes
// effect at the top of the next Update, never mid-tick.
func (e *Engine) SetMarketParams(params market.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := params
	e.pending = &p
}

// Instruments returns a copy of all instrument states.
func (e *Engine) Instruments() []models.InstrumentState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.InstrumentState, 0, len(e.positions))
	for _, ticker := range e.universe {
		out = append(out, *e.positions[ticker])
	}
	return out
}

// Update advances the simulation by one tick. Call it at least once per
// wall-clock second; it is a no-op unless RUNNING and at least one second
// of wall time has elapsed since the previous tick.
func (e *Engine) Update(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return
	}

	now := e.deps.Now()
	elapsed := now.Sub(e.lastTick)
	if elapsed < time.Second {
		return
	}
	e.lastTick = now

	if e.pending != nil {
		e.params = *e.pending
		e.pending = nil
	}

	// One wall second advances the simulated clock by Speed hours.
	e.simTime = e.simTime.Add(time.Duration(elapsed.Seconds() * e.cfg.Speed * float64(time.Hour)))

	if e.simTime.Sub(e.lastEventTime) >= e.cfg.EventInterval {
		e.generateEvents(ctx)
		e.lastEventTime = e.simTime
	}

	e.pruneRecentEvents()
	e.updatePrices()
	e.persistSnapshot()
}

// generateEvents asks the announcer for a batch, resolves each event's
// market effect, and notifies observers. Prices react immediately via the
// updatePrices call that follows in the same tick.
func (e *Engine) generateEvents(ctx context.Context) {
	marketCtx := announcer.MarketContext(e.marketSentiment(), e.instrumentsLocked())
	events := e.deps.Announcer.Generate(ctx, e.pastEvents, e.cfg.EventCount, e.cfg.Categories, marketCtx)

	for i := range events {
		ev := events[i]
		impact := market.Clamp01((ev.Sentiment+1.0)/2.0) *
			(float64(ev.ImpactLevel) / 5.0) *
			(0.8 + e.deps.Rng.Float64()*0.4)

		simEv := SimulationEvent{
			Event: ev,
			AffectedInstruments: sector.AffectedInstruments(sector.EventRef{
				Title:       ev.Title,
				Category:    ev.Category,
				ImpactLevel: ev.ImpactLevel,
			}, e.universe),
			MarketImpact:  impact,
			SimulatedTime: e.simTime,
		}

		var news []models.News
		if e.cfg.NewsEnabled && len(e.outlets) > 0 {
			news = e.deps.Announcer.GenerateNewsForEvent(ctx, &simEv.Event, e.outlets, e.pastEvents)
		}

		e.recentEvents = append(e.recentEvents, simEv)
		e.pastEvents = append(e.pastEvents, simEv.Event)
		if len(e.pastEvents) > maxPastEvents {
			e.pastEvents = e.pastEvents[len(e.pastEvents)-maxPastEvents:]
		}
		e.persistEvent(simEv, news)

		logger.Info("simulation %s event: %s (%s, impact %.3f, %d instruments)",
			e.cfg.SimID, simEv.Event.Title, simEv.Event.Category, impact, len(simEv.AffectedInstruments))

		if e.deps.Callbacks.OnEventOccur != nil {
			e.deps.Callbacks.OnEventOccur(simEv)
		}
		if e.deps.Callbacks.OnNewsUpdate != nil {
			for _, n := range news {
				e.deps.Callbacks.OnNewsUpdate(n)
			}
		}
	}
}

// updatePrices recomputes every instrument from the events still inside
// the recency window. Instruments with no qualifying events are left
// unchanged; prices drift from their previous value, not the session base.
func (e *Engine) updatePrices() {
	for _, ticker := range e.universe {
		pos := e.positions[ticker]

		var sum float64
		var latest *SimulationEvent
		for i := range e.recentEvents {
			ev := &e.recentEvents[i]
			if !affects(ev, ticker) {
				continue
			}
			sum += ev.MarketImpact
			latest = ev
		}
		if latest == nil {
			continue
		}

		oldPrice := pos.CurrentPrice
		if e.deps.Realistic != nil {
			move := e.deps.Realistic.ComputeMove(latest.Event, ticker, oldPrice)
			pos.CurrentPrice = move.NewPrice
			pos.ChangeRate = move.Delta
			// The multiplier is defined against the instrument's baseline
			// volume; scaling the current volume would compound every tick
			// the event stays in the window.
			pos.Volume = int64(math.Round(float64(e.baseVolumes[ticker]) * move.VolumeMultiplier))
		} else {
			w := weights.Derive(e.params, nil, nil)
			res := e.deps.Linear.ComputeDelta(w, e.params, pricing.EventContext{
				NewsImpact:       sum,
				MediaCredibility: fixedMediaCredibility,
			}, oldPrice)
			pos.CurrentPrice = res.NewPrice
			pos.ChangeRate = res.Delta
		}

		if e.deps.Callbacks.OnPriceChange != nil && pos.CurrentPrice != oldPrice {
			e.deps.Callbacks.OnPriceChange(ticker, oldPrice, pos.CurrentPrice, pos.ChangeRate, pos.Volume, e.simTime)
		}
	}
}

func affects(ev *SimulationEvent, ticker string) bool {
	for _, t := range ev.AffectedInstruments {
		if t == ticker {
			return true
		}
	}
	return false
}

// pruneRecentEvents drops events that fell out of the recency window.
func (e *Engine) pruneRecentEvents() {
	cutoff := e.simTime.Add(-e.cfg.RecencyWindow)
	kept := e.recentEvents[:0]
	for _, ev := range e.recentEvents {
		if ev.SimulatedTime.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	e.recentEvents = kept
}

// marketSentiment is the average sentiment of events inside the recency
// window, zero when quiet.
func (e *Engine) marketSentiment() float64 {
	if len(e.recentEvents) == 0 {
		return 0
	}
	var sum float64
	for _, ev := range e.recentEvents {
		sum += ev.Event.Sentiment
	}
	return sum / float64(len(e.recentEvents))
}

func (e *Engine) instrumentsLocked() []models.InstrumentState {
	out := make([]models.InstrumentState, 0, len(e.positions))
	for _, ticker := range e.universe {
		out = append(out, *e.positions[ticker])
	}
	return out
}

// persistEvent records the event and its articles. Persistence failures
// are logged and never abort the tick.
func (e *Engine) persistEvent(simEv SimulationEvent, news []models.News) {
	if e.deps.Store == nil {
		return
	}

	err := e.deps.Store.SaveEventLog(&storage.EventLog{
		SimID:               e.cfg.SimID,
		EventID:             simEv.Event.ID,
		Event:               simEv.Event,
		AffectedInstruments: simEv.AffectedInstruments,
		MarketImpact:        simEv.MarketImpact,
		SimulatedTime:       simEv.SimulatedTime,
	})
	if err != nil {
		logger.Warn("simulation %s failed to persist event %s: %v", e.cfg.SimID, simEv.Event.ID, err)
	}

	for _, n := range news {
		err := e.deps.Store.SaveNewsArticle(&storage.NewsRecord{
			SimID:   e.cfg.SimID,
			EventID: simEv.Event.ID,
			News:    n,
		})
		if err != nil {
			logger.Warn("simulation %s failed to persist article %s: %v", e.cfg.SimID, n.ID, err)
		}
	}
}

func (e *Engine) persistSnapshot() {
	if e.deps.Store == nil {
		return
	}

	err := e.deps.Store.SaveMarketSnapshot(&storage.Snapshot{
		SimID:         e.cfg.SimID,
		Instruments:   e.instrumentsLocked(),
		Params:        e.params,
		SimulatedTime: e.simTime,
	})
	if err != nil {
		logger.Warn("simulation %s failed to persist snapshot: %v", e.cfg.SimID, err)
	}
}
