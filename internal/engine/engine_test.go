package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sams-market/simengine/internal/announcer"
	"github.com/sams-market/simengine/internal/market"
	"github.com/sams-market/simengine/internal/models"
	"github.com/sams-market/simengine/internal/pricing"
)

// fakeClock is a manually advanced wall clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fixedBackend always returns the same event batch.
type fixedBackend struct{ response string }

func (b *fixedBackend) Generate(context.Context, string) (string, error) {
	return b.response, nil
}

// downBackend simulates an unreachable model server.
type downBackend struct{}

func (downBackend) Generate(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

// impact_level stays below the market-wide threshold so only keyword
// matches are affected.
const techEventJSON = `[{"event_type": "반도체 수출 급증", "category": "기술", "sentiment": 0.8, "impact_level": 3, "duration": "mid"}]`

func testInstruments() []models.InstrumentState {
	return []models.InstrumentState{
		{Ticker: "005930", BasePrice: 70000, CurrentPrice: 70000, Volume: 1000000},
		{Ticker: "055550", BasePrice: 40000, CurrentPrice: 40000, Volume: 500000},
	}
}

func newTestEngine(t *testing.T, cfg Config, clock *fakeClock, backend announcer.TextBackend) *Engine {
	t.Helper()
	e, err := New(cfg, market.Params{}, testInstruments(), nil, Deps{
		Announcer: announcer.New(backend, rand.New(rand.NewSource(1))),
		Linear:    &pricing.Linear{},
		Now:       clock.now,
		Rng:       rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func defaultConfig() Config {
	return Config{
		SimID:         "run-1",
		Speed:         1,
		EventInterval: time.Hour,
		EventCount:    1,
		RecencyWindow: time.Hour,
	}
}

func TestStateMachine(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})

	if e.State() != StateStopped {
		t.Fatalf("initial state = %v", e.State())
	}

	e.Pause() // no-op from STOPPED
	if e.State() != StateStopped {
		t.Errorf("pause from STOPPED changed state to %v", e.State())
	}

	e.Start()
	if e.State() != StateRunning {
		t.Fatalf("state after start = %v", e.State())
	}
	startedAt := e.StartedAt()

	e.Pause()
	if e.State() != StatePaused {
		t.Fatalf("state after pause = %v", e.State())
	}
	e.Pause() // no-op from PAUSED
	if e.State() != StatePaused {
		t.Errorf("second pause changed state to %v", e.State())
	}

	clock.advance(30 * time.Second)
	e.Start() // resume
	if e.State() != StateRunning {
		t.Fatalf("state after resume = %v", e.State())
	}
	if !e.StartedAt().Equal(startedAt) {
		t.Errorf("resume reset start time: %v != %v", e.StartedAt(), startedAt)
	}

	e.Stop()
	if e.State() != StateStopped {
		t.Fatalf("state after stop = %v", e.State())
	}
}

func TestUpdateWallClockGate(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})
	e.Start()
	before := e.SimulatedTime()

	clock.advance(500 * time.Millisecond)
	e.Update(context.Background())
	if !e.SimulatedTime().Equal(before) {
		t.Error("sub-second tick advanced the simulated clock")
	}

	clock.advance(600 * time.Millisecond)
	e.Update(context.Background())
	if !e.SimulatedTime().After(before) {
		t.Error("full-second tick did not advance the simulated clock")
	}
}

func TestUpdateAdvancesSimulatedClockBySpeed(t *testing.T) {
	cfg := defaultConfig()
	cfg.Speed = 5
	cfg.EventInterval = 1000 * time.Hour // keep this test event-free
	clock := newFakeClock()
	e := newTestEngine(t, cfg, clock, &fixedBackend{response: techEventJSON})
	e.Start()
	before := e.SimulatedTime()

	clock.advance(2 * time.Second)
	e.Update(context.Background())

	if got, want := e.SimulatedTime().Sub(before), 10*time.Hour; got != want {
		t.Errorf("simulated advance = %v, want %v", got, want)
	}
}

func TestUpdateIsNoOpUnlessRunning(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})

	clock.advance(5 * time.Second)
	e.Update(context.Background()) // STOPPED
	if !e.SimulatedTime().IsZero() {
		t.Error("update while STOPPED advanced the clock")
	}

	e.Start()
	e.Pause()
	before := e.SimulatedTime()
	clock.advance(5 * time.Second)
	e.Update(context.Background()) // PAUSED
	if !e.SimulatedTime().Equal(before) {
		t.Error("update while PAUSED advanced the clock")
	}
}

func TestEventMovesPricesImmediately(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})

	var events []SimulationEvent
	var priceChanges []string
	e.deps.Callbacks = Callbacks{
		OnEventOccur: func(ev SimulationEvent) { events = append(events, ev) },
		OnPriceChange: func(ticker string, oldPrice, newPrice, changeRate float64, volume int64, simTime time.Time) {
			priceChanges = append(priceChanges, ticker)
			if newPrice <= oldPrice {
				t.Errorf("%s: newPrice %v not above oldPrice %v for a positive event", ticker, newPrice, oldPrice)
			}
			if changeRate <= 0 {
				t.Errorf("%s: changeRate %v, want > 0", ticker, changeRate)
			}
		},
	}

	e.Start()
	clock.advance(2 * time.Second) // 2 simulated hours, past the 1h interval
	e.Update(context.Background())

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Event.Title != "반도체 수출 급증" {
		t.Errorf("event title = %q", ev.Event.Title)
	}
	if ev.MarketImpact < 0 || ev.MarketImpact > 1 {
		t.Errorf("market impact %v outside [0, 1]", ev.MarketImpact)
	}

	// A tech event must move the semiconductor ticker on the same tick,
	// and must not move the unrelated bank.
	movedSemis := false
	for _, ticker := range priceChanges {
		if ticker == "005930" {
			movedSemis = true
		}
		if ticker == "055550" {
			t.Error("bank ticker moved on a semiconductor-only event")
		}
	}
	if !movedSemis {
		t.Error("semiconductor ticker did not move on the event tick")
	}
}

func TestRecencyWindowExpiresEvents(t *testing.T) {
	cfg := defaultConfig()
	cfg.EventInterval = 1000 * time.Hour
	clock := newFakeClock()
	e := newTestEngine(t, cfg, clock, &fixedBackend{response: techEventJSON})
	e.Start()

	// Force one event in manually, then let the window slide past it.
	e.mu.Lock()
	e.recentEvents = append(e.recentEvents, SimulationEvent{
		Event:               models.Event{ID: "ev-1", Title: "반도체 호재", Category: "기술", Sentiment: 0.8, ImpactLevel: 3, Duration: "mid"},
		AffectedInstruments: []string{"005930"},
		MarketImpact:        0.5,
		SimulatedTime:       e.simTime,
	})
	e.mu.Unlock()

	clock.advance(2 * time.Second) // 2 simulated hours > 1h window
	e.Update(context.Background())

	for _, inst := range e.Instruments() {
		if inst.Ticker == "005930" && inst.CurrentPrice != 70000 {
			t.Errorf("expired event still moved price to %v", inst.CurrentPrice)
		}
	}
}

func TestSetMarketParamsAppliedNextTick(t *testing.T) {
	cfg := defaultConfig()
	cfg.EventInterval = 1000 * time.Hour
	cfg.RecencyWindow = 1000 * time.Hour
	clock := newFakeClock()
	e := newTestEngine(t, cfg, clock, &fixedBackend{response: techEventJSON})
	e.Start()

	e.mu.Lock()
	e.recentEvents = append(e.recentEvents, SimulationEvent{
		Event:               models.Event{ID: "ev-1", Title: "반도체 호재", Category: "기술", Sentiment: 0.5, ImpactLevel: 3, Duration: "mid"},
		AffectedInstruments: []string{"005930"},
		MarketImpact:        0.3,
		SimulatedTime:       e.simTime.Add(500 * time.Hour),
	})
	e.mu.Unlock()

	clock.advance(time.Second)
	e.Update(context.Background())
	var firstDelta float64
	for _, inst := range e.Instruments() {
		if inst.Ticker == "005930" {
			firstDelta = inst.ChangeRate
		}
	}

	// Push every driver to its bullish extreme; the next tick must price
	// with the new bundle.
	e.SetMarketParams(market.Params{
		Public:     market.Public{RiskAppetite: 1.0},
		Company:    market.Company{Orientation: 1.0},
		Government: market.Government{PolicyDirection: 1.0},
	})

	clock.advance(time.Second)
	e.Update(context.Background())
	for _, inst := range e.Instruments() {
		if inst.Ticker == "005930" && inst.ChangeRate <= firstDelta {
			t.Errorf("delta %v after bullish params not above baseline %v", inst.ChangeRate, firstDelta)
		}
	}
}

func TestRealisticVolumeScalesFromBaseline(t *testing.T) {
	cfg := defaultConfig()
	cfg.EventInterval = 1000 * time.Hour
	cfg.RecencyWindow = 1000 * time.Hour
	clock := newFakeClock()
	rng := rand.New(rand.NewSource(1))
	e, err := New(cfg, market.Params{}, testInstruments(), nil, Deps{
		Announcer: announcer.New(&fixedBackend{response: techEventJSON}, rng),
		Linear:    &pricing.Linear{},
		Realistic: pricing.NewRealistic(nil, rand.New(rand.NewSource(2))),
		Now:       clock.now,
		Rng:       rng,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Start()

	e.mu.Lock()
	e.recentEvents = append(e.recentEvents, SimulationEvent{
		Event:               models.Event{ID: "ev-1", Title: "반도체 호재", Category: "기술", Sentiment: 0.8, ImpactLevel: 3, Duration: "mid"},
		AffectedInstruments: []string{"005930"},
		MarketImpact:        0.5,
		SimulatedTime:       e.simTime.Add(500 * time.Hour),
	})
	e.mu.Unlock()

	// The volume multiplier applies to the baseline each tick. Rescaling
	// the already-scaled volume would explode it exponentially while the
	// event stays inside the window.
	const base = int64(1000000)
	for i := 0; i < 20; i++ {
		clock.advance(time.Second)
		e.Update(context.Background())
		for _, inst := range e.Instruments() {
			if inst.Ticker != "005930" {
				continue
			}
			if inst.Volume <= 0 {
				t.Fatalf("tick %d: volume %d not positive", i, inst.Volume)
			}
			if inst.Volume > 10*base {
				t.Fatalf("tick %d: volume %d compounds past 10x baseline %d", i, inst.Volume, base)
			}
		}
	}
}

func TestEventHistoryIsBounded(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})
	e.Start()

	for i := 0; i < maxPastEvents+10; i++ {
		clock.advance(2 * time.Second) // 2 simulated hours, one batch per tick
		e.Update(context.Background())
	}

	e.mu.Lock()
	n := len(e.pastEvents)
	e.mu.Unlock()
	if n != maxPastEvents {
		t.Errorf("history length = %d, want %d", n, maxPastEvents)
	}
}

func TestSetSpeedValidation(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, &fixedBackend{response: techEventJSON})

	if err := e.SetSpeed(3); err == nil {
		t.Error("expected error for speed 3")
	}
	if err := e.SetSpeed(10); err != nil {
		t.Errorf("SetSpeed(10): %v", err)
	}
}

func TestEventGenerationSurvivesBackendOutage(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, defaultConfig(), clock, downBackend{})

	var events []SimulationEvent
	e.deps.Callbacks.OnEventOccur = func(ev SimulationEvent) { events = append(events, ev) }

	e.Start()
	clock.advance(2 * time.Second)
	e.Update(context.Background())

	if len(events) != 1 {
		t.Fatalf("got %d events with backend down, want 1 synthetic", len(events))
	}
	if err := events[0].Event.Validate(); err != nil {
		t.Errorf("synthetic event invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty sim ID", func(c *Config) { c.SimID = "" }, true},
		{"bad speed", func(c *Config) { c.Speed = 7 }, true},
		{"zero interval", func(c *Config) { c.EventInterval = 0 }, true},
		{"zero count", func(c *Config) { c.EventCount = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry()

	cfg := defaultConfig()
	e := newTestEngine(t, cfg, clock, &fixedBackend{response: techEventJSON})
	if err := r.Register(e); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if e.State() != StateRunning {
		t.Fatal("register did not start the run")
	}
	if err := r.Register(e); err == nil {
		t.Error("expected error for duplicate registration")
	}

	if err := r.Pause("run-1"); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	status, err := r.Status("run-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.State != "PAUSED" {
		t.Errorf("status state = %q, want PAUSED", status.State)
	}

	if err := r.Resume("run-1"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if list := r.List(); len(list) != 1 || list[0].SimID != "run-1" {
		t.Errorf("unexpected list: %v", list)
	}

	if err := r.Stop("run-1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.State() != StateStopped {
		t.Error("stop did not stop the engine")
	}
	if _, err := r.Get("run-1"); err == nil {
		t.Error("stopped run still registered")
	}
	if err := r.Pause("missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}
