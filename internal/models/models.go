// Package models defines the core domain entities of the market simulation:
// world events, news articles, media outlets, and per-instrument price state.
// All entities include built-in validation to keep data integrity at package
// boundaries.
//
// Terminology:
//   - Event: a discrete simulated news-worthy occurrence (category, sentiment,
//     impact level, duration class).
//   - Outlet: a simulated news source with an ideological bias and credibility.
//   - News: one generated article attributed to one outlet covering one event.
package models

import (
	"errors"
	"fmt"
)

// Duration classes for an event's effect on the market.
const (
	DurationShort = "short"
	DurationMid   = "mid"
	DurationLong  = "long"
)

// Event is a simulated world event. Created by the announcer; afterwards it is
// immutable except for appending generated news IDs.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"event_type"` // json tag kept as "event_type" to match the persisted schema
	Category    string   `json:"category"`
	Sentiment   float64  `json:"sentiment"`    // -1.0 .. +1.0
	ImpactLevel int      `json:"impact_level"` // 1 .. 5
	Duration    string   `json:"duration"`     // short | mid | long
	NewsIDs     []string `json:"news_article_ids,omitempty"`
}

// Validate checks that all event fields are in range.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Title == "" {
		return errors.New("event title must not be empty")
	}
	if e.Category == "" {
		return errors.New("event category must not be empty")
	}
	if e.Sentiment < -1.0 || e.Sentiment > 1.0 {
		return fmt.Errorf("sentiment %v out of range [-1, 1]", e.Sentiment)
	}
	if e.ImpactLevel < 1 || e.ImpactLevel > 5 {
		return fmt.Errorf("impact level %d out of range [1, 5]", e.ImpactLevel)
	}
	switch e.Duration {
	case DurationShort, DurationMid, DurationLong:
	default:
		return fmt.Errorf("duration %q must be one of short, mid, long", e.Duration)
	}
	return nil
}

// Outlet is a simulated news source. Static configuration, created once at
// engine setup.
type Outlet struct {
	Name        string  `json:"name"`
	Bias        float64 `json:"bias"`        // -1 conservative .. +1 progressive
	Credibility float64 `json:"credibility"` // 0 .. 1
}

// Validate checks the outlet's configured ranges.
func (o *Outlet) Validate() error {
	if o.Name == "" {
		return errors.New("outlet name must not be empty")
	}
	if o.Bias < -1.0 || o.Bias > 1.0 {
		return fmt.Errorf("outlet bias %v out of range [-1, 1]", o.Bias)
	}
	if o.Credibility < 0.0 || o.Credibility > 1.0 {
		return fmt.Errorf("outlet credibility %v out of range [0, 1]", o.Credibility)
	}
	return nil
}

// News is one generated article. Immutable once created; referenced from its
// event via Event.NewsIDs.
type News struct {
	ID          string `json:"id"`
	Outlet      string `json:"media"`
	ArticleText string `json:"article_text"`
}

// Validate checks the news record.
func (n *News) Validate() error {
	if n.ID == "" {
		return errors.New("news ID must not be empty")
	}
	if n.Outlet == "" {
		return errors.New("news outlet must not be empty")
	}
	if n.ArticleText == "" {
		return errors.New("news article text must not be empty")
	}
	return nil
}

// InstrumentState is the mutable per-instrument price state owned by the
// simulation engine. ChangeRate is the fractional delta applied by the most
// recent update, not the cumulative move from BasePrice.
type InstrumentState struct {
	Ticker       string  `json:"ticker"`
	BasePrice    float64 `json:"base_price"`
	CurrentPrice float64 `json:"current_price"`
	ChangeRate   float64 `json:"change_rate"`
	Volume       int64   `json:"volume"`
}

// CumulativeChange returns the fractional move from the session-open base
// price to the current price.
func (s *InstrumentState) CumulativeChange() float64 {
	if s.BasePrice <= 0 {
		return 0
	}
	return s.CurrentPrice/s.BasePrice - 1.0
}

// Validate checks the price invariants.
func (s *InstrumentState) Validate() error {
	if s.Ticker == "" {
		return errors.New("instrument ticker must not be empty")
	}
	if s.BasePrice <= 0 {
		return fmt.Errorf("base price %v must be positive", s.BasePrice)
	}
	if s.CurrentPrice <= 0 {
		return fmt.Errorf("current price %v must be positive", s.CurrentPrice)
	}
	if s.Volume < 0 {
		return fmt.Errorf("volume %d must not be negative", s.Volume)
	}
	return nil
}
