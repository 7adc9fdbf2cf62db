package pricing

import (
	"math"
	"math/rand"

	"github.com/sams-market/simengine/internal/models"
	"github.com/sams-market/simengine/internal/sector"
)

// maxDailyChangeCap is the hard ceiling on a single event-driven move (15%).
const maxDailyChangeCap = 0.15

// Move is one realistic per-instrument price move.
type Move struct {
	Delta            float64 // fractional change, rounded to 4 decimals
	NewPrice         float64 // rounded to 2 decimals
	VolumeMultiplier float64 // rounded to 2 decimals, 1.0 = unchanged
}

// Realistic computes event-driven per-instrument moves using static
// profiles, sector correlation, and historical return patterns.
type Realistic struct {
	stats map[string]Stats // per-ticker historical patterns, may be sparse
	rng   *rand.Rand
}

// NewRealistic builds the model. stats may be nil; tickers without a
// historical series use the default volatility table.
func NewRealistic(stats map[string]Stats, rng *rand.Rand) *Realistic {
	if stats == nil {
		stats = make(map[string]Stats)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Realistic{stats: stats, rng: rng}
}

// ComputeMove calculates one instrument's reaction to an event. Unknown
// tickers and sector-unrelated events yield a zero move.
func (r *Realistic) ComputeMove(ev models.Event, ticker string, currentPrice float64) Move {
	profile, ok := profiles[ticker]
	if !ok {
		return Move{Delta: 0, NewPrice: currentPrice, VolumeMultiplier: 1.0}
	}

	impact := float64(ev.ImpactLevel) / 5.0

	corr := sector.Correlation(ev.Category, profile.Sector)
	if corr <= 0 {
		return Move{Delta: 0, NewPrice: currentPrice, VolumeMultiplier: 1.0}
	}

	baseImpact := impact * corr * profile.NewsSensitivity
	weighted := baseImpact * (0.5 + 0.5*profile.SectorWeight)
	withSentiment := weighted * (1.0 + ev.Sentiment*0.5)
	withVolatility := withSentiment * profile.Volatility
	move := withVolatility * capMultiplier(profile.CapClass)

	stats, hasStats := r.stats[ticker]
	var maxChange float64
	if hasStats {
		maxChange = math.Min(maxDailyChangeCap, math.Max(stats.MaxAbs*1.5, stats.Std*4))
		// Momentum-prone instruments swing harder, mean-reverting ones less.
		if stats.Autocorr > 0.1 {
			move *= 1.0 + stats.Autocorr*0.3
		} else if stats.Autocorr < -0.1 {
			move *= 1.0 + stats.Autocorr*0.2
		}
	} else {
		vol, ok := defaultDailyVolatility[ticker]
		if !ok {
			vol = fallbackDailyVolatility
		}
		maxChange = math.Min(maxDailyChangeCap, vol*5)
	}

	delta := clip(move, -maxChange, maxChange)

	if hasStats {
		delta += r.rng.NormFloat64() * stats.Std * 0.3
	} else {
		delta += r.uniform(-0.005, 0.005)
	}

	volume := r.volumeMultiplier(math.Abs(delta), impact, profile.NewsSensitivity, stats, hasStats)

	delta = round4(delta)
	return Move{
		Delta:            delta,
		NewPrice:         round2(currentPrice * (1.0 + delta)),
		VolumeMultiplier: volume,
	}
}

// volumeMultiplier models the turnover spike an event causes: bigger price
// moves, higher impact, and more news-sensitive instruments all trade more.
func (r *Realistic) volumeMultiplier(absDelta, impact, newsSensitivity float64, stats Stats, hasStats bool) float64 {
	m := 1.0 + absDelta*3.0
	if hasStats {
		if stats.ExtremeRatio > 0.1 {
			m *= 1.2
		}
		if stats.MaxStreakUp > 3 || stats.MaxStreakDown > 3 {
			m *= 1.1
		}
	}
	m *= 1.0 + impact*2.0
	m *= 1.0 + newsSensitivity*0.5
	m *= r.uniform(0.8, 1.2)
	return round2(m)
}

func (r *Realistic) uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}

func capMultiplier(c CapClass) float64 {
	switch c {
	case CapLarge:
		return 0.8
	case CapSmall:
		return 1.3
	default:
		return 1.0
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
