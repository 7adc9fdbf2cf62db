// Package pricing converts weight vectors and event impact into bounded
// price-change fractions.
//
// Two interchangeable strategies are provided. The linear model weighs the
// four market forces directly and is what the engine uses on every tick.
// The realistic model adds per-instrument sector, volatility, and
// historical-pattern adjustments for event-driven moves.
package pricing

import (
	"math"

	"github.com/sams-market/simengine/internal/market"
	"github.com/sams-market/simengine/internal/weights"
)

// EventContext is the aggregated recent-event influence on one instrument.
// Both fields are clamped to [0, 1] before use; pass MediaCredibility 1.0
// when no outlet weighting applies.
type EventContext struct {
	NewsImpact       float64
	MediaCredibility float64
}

// Result is one computed price move.
type Result struct {
	Delta    float64 // fractional change, rounded to 4 decimals
	NewPrice float64 // rounded to 2 decimals
}

// DeltaModel computes a price move from weights, market parameters, and
// aggregated event context.
type DeltaModel interface {
	ComputeDelta(w weights.Vector, src market.Source, ev EventContext, basePrice float64) Result
}

// Linear is the rule-based weighted model. When Model is set and
// BlendWeight is positive, the rule-based delta is blended with the fitted
// regression's prediction; any inference failure silently keeps the
// rule-based delta.
type Linear struct {
	Model       *Regression
	BlendWeight float64 // 0 = rule-based only, 1 = regression only
}

// ComputeDelta implements DeltaModel.
//
//	delta = w_news·news_impact·media_credibility
//	      + w_public·risk_appetite + w_company·company_trait + w_gov·policy_direction
func (l *Linear) ComputeDelta(w weights.Vector, src market.Source, ev EventContext, basePrice float64) Result {
	w = renormalize(w)

	riskAppetite := src.Unit(market.FieldRiskAppetite)
	companyTrait := src.Unit(market.FieldCompanyTrait)
	policyDirection := src.Unit(market.FieldPolicyDirection)
	newsImpact := market.Clamp01(ev.NewsImpact)
	mediaCred := market.Clamp01(ev.MediaCredibility)

	ruleDelta := w.News*newsImpact*mediaCred +
		w.Public*riskAppetite +
		w.Company*companyTrait +
		w.Gov*policyDirection

	delta := ruleDelta
	if l.Model != nil && l.BlendWeight > 0 {
		if predicted, err := l.Model.Predict(extractFactors(src, ev)); err == nil {
			alpha := market.Clamp01(l.BlendWeight)
			delta = (1-alpha)*ruleDelta + alpha*predicted
		}
	}

	delta = round4(delta)
	return Result{
		Delta:    delta,
		NewPrice: round2(basePrice * (1.0 + delta)),
	}
}

// renormalize guarantees the vector sums to 1 before the delta is
// computed; an all-zero vector becomes an equal split.
func renormalize(w weights.Vector) weights.Vector {
	total := w.Sum()
	if total == 0 {
		return weights.Vector{News: 0.25, Public: 0.25, Company: 0.25, Gov: 0.25}
	}
	return weights.Vector{
		News:    w.News / total,
		Public:  w.Public / total,
		Company: w.Company / total,
		Gov:     w.Gov / total,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
