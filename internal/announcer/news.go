package announcer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sams-market/simengine/internal/logger"
	"github.com/sams-market/simengine/internal/models"
)

// GenerateNewsForEvent produces one article per outlet for an event and
// appends the article IDs to the event. A backend failure for one outlet
// falls back to a templated sentence instead of failing the whole batch.
func (a *Announcer) GenerateNewsForEvent(ctx context.Context, ev *models.Event, outlets []models.Outlet, past []models.Event) []models.News {
	news := make([]models.News, 0, len(outlets))

	for _, outlet := range outlets {
		text := a.generateArticle(ctx, *ev, outlet, past)
		item := models.News{
			ID:          uuid.New().String(),
			Outlet:      outlet.Name,
			ArticleText: text,
		}
		news = append(news, item)
		ev.NewsIDs = append(ev.NewsIDs, item.ID)
	}

	return news
}

func (a *Announcer) generateArticle(ctx context.Context, ev models.Event, outlet models.Outlet, past []models.Event) string {
	if a.backend != nil {
		response, err := a.backend.Generate(ctx, buildNewsPrompt(ev, outlet, past))
		if err == nil {
			if text := cleanArticle(response); text != "" {
				return text
			}
			logger.Warn("news generation for %s produced empty article, using template", outlet.Name)
		} else {
			logger.Warn("news generation for %s failed, using template: %v", outlet.Name, err)
		}
	}
	return templatedArticle(ev, outlet)
}

var (
	codeFenceRe  = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

var labelPrefixes = []string{
	"뉴스 기사:", "기사 본문:", "기사:", "본문:", "뉴스:",
	"Article:", "News:",
}

// cleanArticle normalizes raw model output into plain article prose: an
// embedded news_article JSON field is pulled out if present, label prefixes
// and code fences are stripped, symmetric wrapping quotes are trimmed, and
// runs of blank lines are collapsed.
func cleanArticle(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	if embedded := extractEmbeddedArticle(text); embedded != "" {
		text = embedded
	} else {
		text = codeFenceRe.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
		for _, prefix := range labelPrefixes {
			if strings.HasPrefix(text, prefix) {
				text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
				break
			}
		}
	}

	text = trimSymmetricQuotes(text)
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractEmbeddedArticle pulls the news_article field out of a JSON
// fragment when the model ignored the prose-only instruction.
func extractEmbeddedArticle(text string) string {
	candidate := jsonObjectRe.FindString(text)
	if candidate == "" {
		return ""
	}
	var payload struct {
		NewsArticle string `json:"news_article"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.NewsArticle)
}

var quotePairs = map[rune]rune{
	'"': '"',
	'”': '“',
	'’': '‘',
	'\'': '\'',
}

func trimSymmetricQuotes(text string) string {
	runes := []rune(text)
	for len(runes) >= 2 {
		last := runes[len(runes)-1]
		open, ok := quotePairs[last]
		if !ok || runes[0] != open {
			break
		}
		runes = runes[1 : len(runes)-1]
		for len(runes) > 0 && (runes[0] == ' ' || runes[0] == '\n') {
			runes = runes[1:]
		}
		for len(runes) > 0 && (runes[len(runes)-1] == ' ' || runes[len(runes)-1] == '\n') {
			runes = runes[:len(runes)-1]
		}
	}
	return string(runes)
}

// templatedArticle is the per-outlet fallback sentence, toned by the
// outlet's bias.
func templatedArticle(ev models.Event, outlet models.Outlet) string {
	tone := "주목하고 있다"
	switch {
	case outlet.Bias > 0.3:
		tone = "긍정적으로 평가하고 있다"
	case outlet.Bias < -0.3:
		tone = "신중한 입장을 보이고 있다"
	}
	return fmt.Sprintf("%s 분야에서 '%s' 소식이 전해졌다. 시장 관계자들은 이번 사안을 %s.",
		ev.Category, ev.Title, tone)
}
