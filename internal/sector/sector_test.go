package sector

import "testing"

var universe = []string{
	"005930", "000660", "011070", "005380", "005490", "012450",
	"051910", "006400", "373220", "096770", "015760",
	"055550", "086790", "105560", "138930", "323410",
	"028260", "009540", "010140", "017670", "030200",
	"035420", "035720", "068270", "207940", "097950",
}

func TestAffectedInstrumentsKeywordMatch(t *testing.T) {
	tests := []struct {
		name       string
		ev         EventRef
		wantSome   []string
		wantAbsent []string
	}{
		{
			name:       "semiconductor category",
			ev:         EventRef{Title: "수출 호조", Category: "반도체", ImpactLevel: 2},
			wantSome:   []string{"005930", "000660"},
			wantAbsent: []string{"055550"},
		},
		{
			name:       "rate keyword in title",
			ev:         EventRef{Title: "한국은행 금리 인상 발표", Category: "뉴스", ImpactLevel: 2},
			wantSome:   []string{"055550", "105560"},
			wantAbsent: []string{"005930"},
		},
		{
			name:     "title and category both match",
			ev:       EventRef{Title: "환율 급등", Category: "자동차", ImpactLevel: 3},
			wantSome: []string{"005380", "009540"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AffectedInstruments(tt.ev, universe)
			set := make(map[string]bool, len(got))
			for _, ticker := range got {
				set[ticker] = true
			}
			for _, want := range tt.wantSome {
				if !set[want] {
					t.Errorf("expected %s in affected set %v", want, got)
				}
			}
			for _, absent := range tt.wantAbsent {
				if set[absent] {
					t.Errorf("did not expect %s in affected set %v", absent, got)
				}
			}
		})
	}
}

func TestAffectedInstrumentsMarketWide(t *testing.T) {
	// High impact overrides keyword matching entirely.
	got := AffectedInstruments(EventRef{Title: "전례 없는 사건", Category: "기타", ImpactLevel: 5}, universe)
	if len(got) != len(universe) {
		t.Fatalf("impact 5 should affect all %d instruments, got %d", len(universe), len(got))
	}

	// No keyword match falls back to the whole universe too.
	got = AffectedInstruments(EventRef{Title: "알 수 없는 소식", Category: "기타", ImpactLevel: 1}, universe)
	if len(got) != len(universe) {
		t.Fatalf("keywordless event should affect all %d instruments, got %d", len(universe), len(got))
	}
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		category string
		sector   string
		want     float64
	}{
		{"기술", "IT/전자", 1.0},
		{"기술", "바이오", 1.0},
		{"경제", "금융", 1.0},
		{"기술", "화학", 1.0}, // direct per the category table
		{"기술", "자동차", 0.4},
		{"경제", "바이오", 0.6},
		{"정치", "금융", 1.0},
		{"정부", "통신", 0.1},
		{"사회", "금융", 0.2},
	}
	for _, tt := range tests {
		if got := Correlation(tt.category, tt.sector); got != tt.want {
			t.Errorf("Correlation(%q, %q) = %v, want %v", tt.category, tt.sector, got, tt.want)
		}
	}
}

func TestCorrelationUnknownCategoryDefault(t *testing.T) {
	got := Correlation("연예", "IT/전자")
	if got < 0.1 || got > 0.3 {
		t.Fatalf("unknown category correlation %v outside weak-default band [0.1, 0.3]", got)
	}
}
