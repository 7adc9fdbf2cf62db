package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sams-market/simengine/internal/announcer"
	"github.com/sams-market/simengine/internal/config"
	"github.com/sams-market/simengine/internal/engine"
	"github.com/sams-market/simengine/internal/llm"
	"github.com/sams-market/simengine/internal/logger"
	"github.com/sams-market/simengine/internal/market"
	"github.com/sams-market/simengine/internal/models"
	"github.com/sams-market/simengine/internal/notify"
	"github.com/sams-market/simengine/internal/pricing"
	"github.com/sams-market/simengine/internal/storage"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	simID      = flag.String("sim-id", "", "Run identifier (random when empty)")
)

// Session-open prices for the tracked universe, in KRW.
var basePrices = map[string]float64{
	"005930": 71000, "000660": 182000, "011070": 255000,
	"005380": 242000, "005490": 392000, "012450": 231000,
	"051910": 368000, "006400": 372000, "373220": 412000,
	"096770": 112000, "015760": 21500,
	"055550": 47800, "086790": 58900, "105560": 78200,
	"138930": 9100, "323410": 24300,
	"028260": 141000, "009540": 128000, "010140": 9800,
	"017670": 51300, "030200": 36900,
	"035420": 192000, "035720": 44900,
	"068270": 178000, "207940": 812000,
	"097950": 312000,
}

// defaultOutlets is the simulated press corps.
var defaultOutlets = []models.Outlet{
	{Name: "한국경제신문", Bias: -0.4, Credibility: 0.8},
	{Name: "진보경제", Bias: 0.5, Credibility: 0.65},
	{Name: "중앙마켓데일리", Bias: 0.0, Credibility: 0.75},
	{Name: "시장속보", Bias: 0.2, Credibility: 0.45},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("info", "text")
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Init("info", "text")
		logger.Fatal("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	store := storage.New(
		cfg.Storage.MaxEventLogsPerRun,
		cfg.Storage.MaxSnapshotsPerRun,
		cfg.Storage.FilePath,
		0o644,
		0o755,
	)
	if err := store.Load(); err != nil {
		logger.Warn("Failed to load persisted data: %v", err)
	}

	seed := cfg.Market.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	backend := llm.NewClient(
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.LLM.Timeout,
		cfg.LLM.RequestsPerSec,
	)
	gen := announcer.New(backend, rng)

	params := market.FromScenario(cfg.Market.Scenario, cfg.Market.PerturbationScale, rng)

	linear := &pricing.Linear{}
	if cfg.Market.RegressionModel != "" {
		model, err := pricing.LoadRegression(cfg.Market.RegressionModel)
		if err != nil {
			logger.Warn("Failed to load regression model, staying rule-based: %v", err)
		} else {
			linear.Model = model
			linear.BlendWeight = cfg.Market.BlendWeight
		}
	}

	var realistic *pricing.Realistic
	if cfg.Market.RealisticMoves {
		realistic = pricing.NewRealistic(nil, rng)
	}

	var notifier *notify.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = notify.New(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.Telegram.MinImpactLevel,
			3,
			time.Second,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram notifier: %v", err)
		}
		logger.Info("Telegram notifier initialized")
	}

	runID := *simID
	if runID == "" {
		runID = uuid.New().String()
	}

	callbacks := engine.Callbacks{
		OnPriceChange: func(ticker string, oldPrice, newPrice, changeRate float64, volume int64, simTime time.Time) {
			logger.Debug("price %s: %.2f -> %.2f (%+.4f) vol=%d at %s",
				ticker, oldPrice, newPrice, changeRate, volume, simTime.Format(time.RFC3339))
		},
		OnNewsUpdate: func(news models.News) {
			logger.Debug("news from %s: %s", news.Outlet, news.ID)
		},
	}
	if notifier != nil {
		callbacks.OnEventOccur = notifier.NotifyEvent
	}

	eng, err := engine.New(
		engine.Config{
			SimID:         runID,
			Speed:         cfg.Simulation.Speed,
			EventInterval: cfg.Simulation.EventInterval,
			EventCount:    cfg.Simulation.EventCount,
			RecencyWindow: cfg.Simulation.RecencyWindow,
			NewsEnabled:   cfg.Simulation.NewsEnabled,
			Categories:    cfg.Simulation.Categories,
		},
		params,
		buildInstruments(),
		defaultOutlets,
		engine.Deps{
			Announcer: gen,
			Store:     store,
			Linear:    linear,
			Realistic: realistic,
			Callbacks: callbacks,
			Rng:       rng,
		},
	)
	if err != nil {
		logger.Fatal("Failed to create engine: %v", err)
	}

	registry := engine.NewRegistry()
	if err := registry.Register(eng); err != nil {
		logger.Fatal("Failed to register run: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	logger.Info("Simulation %s running (speed %vx, event interval %v, scenario %s)",
		runID, cfg.Simulation.Speed, cfg.Simulation.EventInterval, cfg.Market.Scenario)

	ticker := time.NewTicker(cfg.Simulation.TickInterval)
	defer ticker.Stop()

	persistenceTicker := time.NewTicker(cfg.Storage.PersistenceInterval)
	defer persistenceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			registry.StopAll()
			if err := store.Save(); err != nil {
				logger.Error("Failed to save state: %v", err)
			}
			logger.Info("Simulation stopped")
			return

		case <-ticker.C:
			eng.Update(ctx)

		case <-persistenceTicker.C:
			if err := store.Save(); err != nil {
				logger.Error("Failed to persist data: %v", err)
			}
			if err := store.RotateSnapshots(); err != nil {
				logger.Error("Failed to rotate snapshots: %v", err)
			}
			if err := store.RotateEventLogs(); err != nil {
				logger.Error("Failed to rotate event logs: %v", err)
			}
		}
	}
}

// buildInstruments seeds the tracked universe from the static profiles and
// session-open price table.
func buildInstruments() []models.InstrumentState {
	instruments := make([]models.InstrumentState, 0, len(basePrices))
	for ticker, price := range basePrices {
		volume := int64(100000)
		if p, ok := pricing.LookupProfile(ticker); ok {
			volume = p.BaseVolume
		}
		instruments = append(instruments, models.InstrumentState{
			Ticker:       ticker,
			BasePrice:    price,
			CurrentPrice: price,
			Volume:       volume,
		})
	}
	return instruments
}
