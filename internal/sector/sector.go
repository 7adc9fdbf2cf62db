// Package sector maps events onto the instruments they plausibly move.
//
// Resolution is keyword-driven: an event's category or title is matched
// against sector terms and macro keywords, each carrying a fixed list of
// tickers. Events matching nothing, or judged market-wide by impact level,
// fall back to the full tracked universe. Correlation scores how relevant
// an event category is to an instrument's industry sector.
package sector

import (
	"sort"
	"strings"
)

// Sector keyword -> affected tickers. Tickers follow the KRX 6-digit scheme.
var sectorInstruments = map[string][]string{
	"반도체": {"005930", "000660", "011070"},
	"전자":  {"005930", "000660", "011070"},

	"자동차": {"005380", "005490"},
	"조선":  {"009540", "010140"},
	"방산":  {"012450"},

	"화학":  {"051910", "006400", "373220"},
	"에너지": {"096770", "015760"},

	"금융": {"055550", "086790", "105560", "138930", "323410"},
	"은행": {"055550", "086790", "105560", "138930", "323410"},

	"건설": {"028260"},

	"통신":  {"017670", "030200"},
	"인터넷": {"035420", "035720"},
	"미디어": {"035420", "035720"},

	"바이오": {"068270", "207940"},
	"제약":  {"068270", "207940"},

	"식품":  {"097950"},
	"소비재": {"097950"},

	"기술":  {"005930", "000660", "035420", "035720"},
	"AI":  {"005930", "000660", "035420", "035720"},
	"디지털": {"035420", "035720", "323410"},
}

// Macro keyword -> affected tickers (rate-sensitive financials, exporters,
// raw-material plays, and so on).
var keywordInstruments = map[string][]string{
	"금리":  {"055550", "086790", "105560", "138930"},
	"환율":  {"005380", "005490", "009540", "010140"},
	"원자재": {"051910", "006400", "373220", "096770"},
	"정책":  {"015760", "096770", "051910"},
	"경기":  {"005380", "005490", "028260", "009540"},
	"방산":  {"012450", "009540", "010140"},
	"친환경": {"006400", "373220", "005380", "005490"},
	"디지털": {"035420", "035720", "323410"},
}

// Event category -> directly related industry sectors.
var categorySectors = map[string][]string{
	"기술": {"IT/전자", "바이오", "화학"},
	"정부": {"금융", "에너지", "건설"},
	"경제": {"금융", "IT/전자", "자동차"},
	"사회": {"소비재", "통신", "물류/운송"},
	"국제": {"IT/전자", "자동차", "화학"},
	"금융": {"금융", "IT/전자"},
	"산업": {"화학", "철강/소재", "에너지"},
	"정치": {"금융", "건설", "에너지"},
}

// marketWideImpactLevel marks an event broad enough to move every tracked
// instrument regardless of keyword matches.
const marketWideImpactLevel = 4

// EventRef is the subset of an event the resolver needs.
type EventRef struct {
	Title       string
	Category    string
	ImpactLevel int
}

// AffectedInstruments returns the sorted set of tickers an event affects.
// The result is the union of sector-keyword and macro-keyword matches over
// the event's category and title; an empty union or a market-wide impact
// level falls back to the full universe.
func AffectedInstruments(ev EventRef, universe []string) []string {
	matched := make(map[string]struct{})

	for keyword, tickers := range sectorInstruments {
		if containsKeyword(ev, keyword) {
			for _, t := range tickers {
				matched[t] = struct{}{}
			}
		}
	}
	for keyword, tickers := range keywordInstruments {
		if containsKeyword(ev, keyword) {
			for _, t := range tickers {
				matched[t] = struct{}{}
			}
		}
	}

	if len(matched) == 0 || ev.ImpactLevel >= marketWideImpactLevel {
		out := make([]string, len(universe))
		copy(out, universe)
		sort.Strings(out)
		return out
	}

	// Keep only tickers the engine actually tracks.
	tracked := make(map[string]struct{}, len(universe))
	for _, t := range universe {
		tracked[t] = struct{}{}
	}
	out := make([]string, 0, len(matched))
	for t := range matched {
		if _, ok := tracked[t]; ok {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = make([]string, len(universe))
		copy(out, universe)
	}
	sort.Strings(out)
	return out
}

func containsKeyword(ev EventRef, keyword string) bool {
	return strings.Contains(ev.Category, keyword) || strings.Contains(ev.Title, keyword)
}

// Correlation scores how relevant an event category is to an industry
// sector, in [0.1, 1.0]. A direct table hit returns 1.0; known categories
// fall through to a coarse indirect heuristic; unknown categories return a
// weak default of 0.3.
func Correlation(eventCategory, instrumentSector string) float64 {
	sectors, ok := categorySectors[eventCategory]
	if !ok {
		return 0.3
	}
	for _, s := range sectors {
		if s == instrumentSector {
			return 1.0
		}
	}
	return indirectCorrelation(eventCategory, instrumentSector)
}

// indirectCorrelation estimates relevance for category/sector pairs without
// a direct table hit. Technology and economy news bleed into adjacent
// manufacturing sectors; government and politics mostly touch rate- and
// policy-sensitive sectors.
func indirectCorrelation(eventCategory, instrumentSector string) float64 {
	switch eventCategory {
	case "기술", "경제":
		switch instrumentSector {
		case "IT/전자", "바이오":
			return 0.6
		case "화학", "자동차":
			return 0.4
		default:
			return 0.2
		}
	case "정부", "정치":
		switch instrumentSector {
		case "금융", "에너지":
			return 0.5
		default:
			return 0.1
		}
	}
	return 0.2
}
