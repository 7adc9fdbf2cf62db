package pricing

import "math"

// minHistoryPoints is the minimum series length for pattern analysis;
// shorter series fall back to the per-instrument default volatility.
const minHistoryPoints = 10

// extremeMoveThreshold marks a daily move counted as extreme (2%).
const extremeMoveThreshold = 0.02

// Stats summarizes an instrument's historical daily-return series. It is
// precomputed once at startup and drives move clipping, noise scale, and
// volume boosts.
type Stats struct {
	Mean          float64
	Std           float64
	MaxAbs        float64
	Autocorr      float64 // lag-1 autocorrelation of daily moves
	ExtremeRatio  float64 // share of days with |move| > 2%
	MaxStreakUp   int
	MaxStreakDown int
	DataPoints    int
}

// ComputeStats analyzes a daily-return series. ok is false when the series
// is too short to be trusted.
func ComputeStats(returns []float64) (stats Stats, ok bool) {
	n := len(returns)
	if n < minHistoryPoints {
		return Stats{}, false
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(n)

	var variance, maxAbs float64
	extremes := 0
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if a := math.Abs(r); a > maxAbs {
			maxAbs = a
		}
		if math.Abs(r) > extremeMoveThreshold {
			extremes++
		}
	}
	variance /= float64(n)

	up, down, maxUp, maxDown := 0, 0, 0, 0
	for _, r := range returns {
		switch {
		case r > 0:
			up++
			down = 0
			if up > maxUp {
				maxUp = up
			}
		case r < 0:
			down++
			up = 0
			if down > maxDown {
				maxDown = down
			}
		default:
			up, down = 0, 0
		}
	}

	return Stats{
		Mean:          mean,
		Std:           math.Sqrt(variance),
		MaxAbs:        maxAbs,
		Autocorr:      lag1Autocorr(returns),
		ExtremeRatio:  float64(extremes) / float64(n),
		MaxStreakUp:   maxUp,
		MaxStreakDown: maxDown,
		DataPoints:    n,
	}, true
}

// lag1Autocorr is the Pearson correlation between consecutive daily moves.
// Returns 0 when either side has no variance.
func lag1Autocorr(returns []float64) float64 {
	n := len(returns) - 1
	if n < 2 {
		return 0
	}
	x := returns[:n]
	y := returns[1:]

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// defaultDailyVolatility is the per-instrument average daily move used when
// no historical series is available.
var defaultDailyVolatility = map[string]float64{
	"005930": 0.023,
	"000660": 0.028,
	"005380": 0.018,
	"005490": 0.021,
	"051910": 0.025,
	"097950": 0.016,
	"006400": 0.024,
	"373220": 0.026,
	"096770": 0.020,
	"055550": 0.015,
	"086790": 0.016,
	"105560": 0.015,
	"138930": 0.018,
	"323410": 0.025,
	"028260": 0.019,
	"009540": 0.017,
	"010140": 0.022,
	"017670": 0.016,
	"030200": 0.016,
	"015760": 0.014,
	"068270": 0.029,
	"207940": 0.030,
}

// fallbackDailyVolatility covers tickers absent from the default table.
const fallbackDailyVolatility = 0.02
