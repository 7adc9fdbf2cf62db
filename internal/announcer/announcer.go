// Package announcer turns a generative text backend into structured world
// events and per-outlet news articles. Backend failures never surface: a
// synthetic generator guarantees structurally valid output.
package announcer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/sams-market/simengine/internal/logger"
	"github.com/sams-market/simengine/internal/models"
)

// TextBackend generates a completion for a prompt.
type TextBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// defaultCategories is used by the synthetic fallback when the caller gives
// no allow-list.
var defaultCategories = []string{"기술", "경제", "정치", "사회", "국제", "금융", "산업", "정부"}

// fallbackTitles provides template titles for synthetic events, keyed by
// category with a generic set for the rest.
var fallbackTitles = map[string][]string{
	"기술": {"대규모 기술 투자 발표", "신형 반도체 공정 공개", "AI 서비스 장애 발생"},
	"경제": {"수출 지표 예상치 상회", "소비자 물가 상승세 둔화", "무역수지 적자 전환"},
	"정치": {"국회 주요 법안 처리", "정부 조직 개편 발표", "여야 협상 결렬"},
	"사회": {"대규모 채용 박람회 개최", "노사 임금 협상 타결", "공공요금 조정 논의"},
	"국제": {"주요국 정상회담 개최", "해외 공급망 차질 발생", "국제 유가 급등락"},
	"금융": {"기준금리 동결 결정", "시중은행 대출 규제 강화", "증시 변동성 확대"},
	"산업": {"주요 공장 증설 착공", "원자재 가격 급등", "업계 구조조정 본격화"},
	"정부": {"신산업 지원 정책 발표", "세제 개편안 공개", "규제 완화 로드맵 제시"},
}

var genericTitles = []string{"예상 밖의 시장 변수 발생", "업계 전반에 파장 예상", "관련 부처 긴급 대응"}

// Announcer generates events and news articles.
type Announcer struct {
	backend TextBackend
	rng     *rand.Rand
}

// New creates an announcer. rng may be nil.
func New(backend TextBackend, rng *rand.Rand) *Announcer {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Announcer{backend: backend, rng: rng}
}

// Generate produces exactly count valid events. The backend is asked first;
// on any failure (transport, parse, empty output) synthetic events fill the
// batch so the caller always gets a full set.
func (a *Announcer) Generate(ctx context.Context, past []models.Event, count int, allowedCategories []string, marketContext string) []models.Event {
	if count <= 0 {
		return nil
	}

	events := a.generateFromBackend(ctx, past, count, allowedCategories, marketContext)
	if len(events) > count {
		events = events[:count]
	}
	for len(events) < count {
		events = append(events, a.syntheticEvent(allowedCategories))
	}
	return events
}

func (a *Announcer) generateFromBackend(ctx context.Context, past []models.Event, count int, allowedCategories []string, marketContext string) []models.Event {
	if a.backend == nil {
		return nil
	}

	prompt := buildEventPrompt(past, count, allowedCategories, marketContext)
	response, err := a.backend.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("event generation backend failed, using synthetic events: %v", err)
		return nil
	}

	records, err := parseEvents(response)
	if err != nil {
		logger.Warn("event generation output unparseable, using synthetic events: %v", err)
		return nil
	}

	events := make([]models.Event, 0, len(records))
	for _, record := range records {
		ev := coerceEvent(record)
		ev.ID = uuid.New().String()
		events = append(events, ev)
	}
	return events
}

// syntheticEvent builds a random but structurally valid event without the
// backend.
func (a *Announcer) syntheticEvent(allowedCategories []string) models.Event {
	categories := allowedCategories
	if len(categories) == 0 {
		categories = defaultCategories
	}
	category := categories[a.rng.Intn(len(categories))]

	titles, ok := fallbackTitles[category]
	if !ok {
		titles = genericTitles
	}
	durations := []string{models.DurationShort, models.DurationMid, models.DurationLong}

	return models.Event{
		ID:          uuid.New().String(),
		Title:       titles[a.rng.Intn(len(titles))],
		Category:    category,
		Sentiment:   a.rng.Float64()*2.0 - 1.0,
		ImpactLevel: a.rng.Intn(5) + 1,
		Duration:    durations[a.rng.Intn(len(durations))],
	}
}

// MarketContext renders a short market summary for prompt embedding.
func MarketContext(sentiment float64, states []models.InstrumentState) string {
	if len(states) == 0 {
		return ""
	}
	var sum float64
	for _, s := range states {
		sum += s.CumulativeChange()
	}
	avg := sum / float64(len(states))

	mood := "보통"
	switch {
	case sentiment > 0.3:
		mood = "낙관적"
	case sentiment < -0.3:
		mood = "비관적"
	}
	return fmt.Sprintf("- 시장 분위기: %s (점수 %.2f)\n- 전체 종목 평균 등락률: %.2f%%", mood, sentiment, avg*100)
}
