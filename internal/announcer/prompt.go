package announcer

import (
	"fmt"
	"strings"

	"github.com/sams-market/simengine/internal/models"
)

// maxHistoryEvents bounds how many recent events are embedded in a prompt.
const maxHistoryEvents = 5

func historyBlock(past []models.Event) string {
	if len(past) == 0 {
		return "이전 사건은 없습니다."
	}
	if len(past) > maxHistoryEvents {
		past = past[len(past)-maxHistoryEvents:]
	}
	var b strings.Builder
	for i, ev := range past {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- 제목: %s | 카테고리: %s | 감성: %g | 영향: %d | 지속: %s",
			ev.Title, ev.Category, ev.Sentiment, ev.ImpactLevel, ev.Duration)
	}
	return b.String()
}

// buildEventPrompt constructs the event-generation prompt: recent history
// for context, an optional market summary, and a strict JSON-array-only
// output contract.
func buildEventPrompt(past []models.Event, count int, allowedCategories []string, marketContext string) string {
	var b strings.Builder

	b.WriteString("다음은 지금까지 발생한 사건들의 요약입니다:\n")
	b.WriteString(historyBlock(past))
	b.WriteByte('\n')

	if marketContext != "" {
		b.WriteString("\n현재 시장 상황:\n")
		b.WriteString(marketContext)
		b.WriteString("\n\n위 시장 상황을 고려하여 적절한 사건을 생성하세요.\n")
	}

	categoryRule := `  "category": "카테고리",`
	if len(allowedCategories) > 0 {
		categoryRule = fmt.Sprintf(`  "category": "%s 중 하나",`, strings.Join(allowedCategories, ", "))
	}

	fmt.Fprintf(&b, `
위 맥락을 고려하여, 현실적인 새 사건 %d개를 생성하세요.
응답은 반드시 아래 JSON 배열 형식으로만 출력하세요. (설명/코드블록/주석 금지)

[
  {
    "event_type": "사건 제목 (간결하게 한국어로)",
%s
    "sentiment": 감성점수(-1.0~1.0 float),
    "impact_level": 영향수준(1~5 정수),
    "duration": "short" 또는 "mid" 또는 "long"
  }
]

요구사항:
- 출력은 한국어로 작성된 JSON만 포함하세요.
- 값 범위를 반드시 지키세요 (sentiment: -1~1, impact_level: 1~5, duration: short/mid/long).
- 허용된 카테고리가 지정되었으면 그 안에서 선택하세요.
- 사건 제목은 한국어로 간결하게 작성하세요.
- 영어 번역이나 번역 표시를 포함하지 마세요.
`, count, categoryRule)

	return strings.TrimSpace(b.String())
}

// buildNewsPrompt constructs the article-generation prompt for one outlet,
// embedding the event and the outlet's bias and credibility.
func buildNewsPrompt(ev models.Event, outlet models.Outlet, past []models.Event) string {
	var b strings.Builder

	b.WriteString("다음은 지금까지 발생한 사건들의 요약입니다:\n")
	b.WriteString(historyBlock(past))
	b.WriteString("\n\n이후, 현재 사건은 다음과 같습니다:\n\n")

	fmt.Fprintf(&b, `[사건 정보]
- 제목: %s
- 카테고리: %s
- 감성 점수: %g
- 영향 수준: %d
- 지속 기간: %s

이 사건에 대해, 아래 언론사의 성향과 신뢰도를 반영한 뉴스 기사를 생성하세요:

[언론사 정보]
- 이름: %s
- 성향 (bias): %g (-1: 보수, 0: 중립, +1: 진보)
- 신뢰도 (credibility): %g (0~1)

[출력 형식]
뉴스 기사 본문만 출력하세요. 250~400자 분량으로 작성하세요.
과장, 왜곡, 미화 여부는 언론 성향과 신뢰도에 따라 판단해 작성하세요.

[중요 규칙]
- 한국어로만 작성하세요. 영어 번역이나 번역 표시를 포함하지 마세요.
- 코드, JSON, 기술적 파라미터를 포함하지 마세요.
- 순수한 뉴스 기사 형태로만 작성하세요.
- 언론사 이름은 기사 내용에 포함하지 마세요.
`, ev.Title, ev.Category, ev.Sentiment, ev.ImpactLevel, ev.Duration,
		outlet.Name, outlet.Bias, outlet.Credibility)

	return strings.TrimSpace(b.String())
}
