package announcer

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sams-market/simengine/internal/models"
)

var (
	jsonArrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// rawEvent accepts the loosely-typed records language models emit: numbers
// may arrive as strings, strings as numbers.
type rawEvent struct {
	Title       json.RawMessage `json:"event_type"`
	Category    json.RawMessage `json:"category"`
	Sentiment   json.RawMessage `json:"sentiment"`
	ImpactLevel json.RawMessage `json:"impact_level"`
	Duration    json.RawMessage `json:"duration"`
}

// parseEvents extracts and parses the event records embedded in a raw model
// response. The first JSON array substring wins; a lone object is wrapped
// into a single-element batch.
func parseEvents(response string) ([]rawEvent, error) {
	candidate := jsonArrayRe.FindString(response)
	if candidate != "" {
		var records []rawEvent
		if err := json.Unmarshal([]byte(candidate), &records); err == nil && len(records) > 0 {
			return records, nil
		}
	}

	candidate = jsonObjectRe.FindString(response)
	if candidate != "" {
		var record rawEvent
		if err := json.Unmarshal([]byte(candidate), &record); err == nil {
			return []rawEvent{record}, nil
		}
	}

	return nil, errors.New("no parseable JSON found in response")
}

// durationSynonyms canonicalizes free-form duration labels.
var durationSynonyms = map[string]string{
	"short":      models.DurationShort,
	"short_term": models.DurationShort,
	"short-term": models.DurationShort,
	"단기":         models.DurationShort,
	"mid":        models.DurationMid,
	"medium":     models.DurationMid,
	"mid_term":   models.DurationMid,
	"mid-term":   models.DurationMid,
	"중기":         models.DurationMid,
	"long":       models.DurationLong,
	"long_term":  models.DurationLong,
	"long-term":  models.DurationLong,
	"longterm":   models.DurationLong,
	"장기":         models.DurationLong,
}

// coerceEvent forces one parsed record into a valid Event. Out-of-range
// numbers are clamped, unrecognized durations default to mid, and missing
// text fields get placeholders so the result always validates.
func coerceEvent(raw rawEvent) models.Event {
	return models.Event{
		Title:       coerceString(raw.Title, "제목 없는 사건"),
		Category:    coerceString(raw.Category, "기타"),
		Sentiment:   coerceSentiment(raw.Sentiment),
		ImpactLevel: coerceImpact(raw.ImpactLevel),
		Duration:    coerceDuration(raw.Duration),
	}
}

func coerceString(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return fallback
	}
	// Non-string scalar, keep its textual form.
	if t := strings.TrimSpace(string(raw)); t != "" && t != "null" {
		return t
	}
	return fallback
}

func coerceSentiment(raw json.RawMessage) float64 {
	v, ok := coerceNumber(raw)
	if !ok {
		return 0
	}
	if v < -1.0 {
		return -1.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

func coerceImpact(raw json.RawMessage) int {
	v, ok := coerceNumber(raw)
	if !ok {
		return 1
	}
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

// coerceNumber reads a JSON number or a numeric string, tolerating a
// leading "+" sign.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func coerceDuration(raw json.RawMessage) string {
	s := coerceString(raw, models.DurationMid)
	if canonical, ok := durationSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return canonical
	}
	return models.DurationMid
}
