// Package weights derives the four-way allocation of how strongly news,
// public sentiment, corporate posture, and government policy each drive
// price movement.
//
// Derivation is a pure function of the market parameters plus optional
// recent-event and external-market adjustments. Every component is clamped
// to [0, 1] and the vector is renormalized to sum to 1, so downstream
// pricing can rely on the invariant without re-checking.
package weights

import "github.com/sams-market/simengine/internal/market"

// Vector is the normalized weight allocation. Components are each in
// [0, 1] and sum to 1 within 1e-6.
type Vector struct {
	News    float64 `json:"w_news"`
	Public  float64 `json:"w_public"`
	Company float64 `json:"w_company"`
	Gov     float64 `json:"w_gov"`
}

// Sum returns the component total, useful for invariant checks.
func (v Vector) Sum() float64 {
	return v.News + v.Public + v.Company + v.Gov
}

// EventSummary carries aggregates over the recent event window that nudge
// the weight split. SurpriseRatio is the fraction of recent events with
// high impact; PosNegRatio is the fraction with positive sentiment (0.5 is
// neutral and leaves the public weight untouched).
type EventSummary struct {
	SurpriseRatio float64
	PosNegRatio   float64
}

// External carries observed external-market indicators. VIX is expected
// pre-normalized to [0, 1].
type External struct {
	VIX float64
}

// Derive computes the weight vector from the market parameters. summary and
// ext are optional; nil skips their adjustments. Missing or malformed
// parameter fields resolve to midpoints through the Source capability, so
// Derive never fails.
func Derive(src market.Source, summary *EventSummary, ext *External) Vector {
	newsSensitivity := src.Unit(market.FieldNewsSensitivity)
	mediaTrust := src.Unit(market.FieldMediaTrust)
	riskAppetite := src.Unit(market.FieldRiskAppetite)
	rndRatio := src.Unit(market.FieldRnDRatio)
	policyDirection := src.Unit(market.FieldPolicyDirection)

	wNews := 0.35 + 0.20*newsSensitivity + 0.05*mediaTrust
	wPublic := 0.25 + 0.15*riskAppetite
	wCompany := 0.20 + 0.20*rndRatio
	wGov := 0.20 + 0.20*policyDirection

	if summary != nil {
		wNews += 0.05 * market.Clamp01(summary.SurpriseRatio)
		wPublic += 0.05 * (market.Clamp01(summary.PosNegRatio) - 0.5)
	}
	if ext != nil {
		wNews += 0.05 * market.Clamp01(ext.VIX)
	}

	return normalize(Vector{
		News:    market.Clamp01(wNews),
		Public:  market.Clamp01(wPublic),
		Company: market.Clamp01(wCompany),
		Gov:     market.Clamp01(wGov),
	})
}

// normalize rescales the vector to sum to 1. A zero vector becomes an equal
// split so the result is always a valid allocation.
func normalize(v Vector) Vector {
	total := v.Sum()
	if total == 0 {
		return Vector{News: 0.25, Public: 0.25, Company: 0.25, Gov: 0.25}
	}
	return Vector{
		News:    v.News / total,
		Public:  v.Public / total,
		Company: v.Company / total,
		Gov:     v.Gov / total,
	}
}
