// Package notify pushes high-impact simulation events to Telegram.
// It formats occurred events into human-readable messages and handles
// delivery with retry logic for reliability. Delivery failures are logged
// and never propagate into the simulation loop.
package notify

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sams-market/simengine/internal/engine"
	"github.com/sams-market/simengine/internal/logger"
)

// Notifier sends event alerts to one Telegram chat.
type Notifier struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	minImpactLevel int
	maxRetries     int
	retryDelayBase time.Duration
}

// New creates a Telegram notifier. Events below minImpactLevel are skipped.
func New(botToken, chatID string, minImpactLevel, maxRetries int, retryDelayBase time.Duration) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if minImpactLevel < 1 {
		minImpactLevel = 1
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Notifier{
		bot:            bot,
		chatID:         chatIDInt,
		minImpactLevel: minImpactLevel,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// NotifyEvent is the engine's OnEventOccur hook. It must never fail the
// tick, so all errors end at the log.
func (n *Notifier) NotifyEvent(ev engine.SimulationEvent) {
	if ev.Event.ImpactLevel < n.minImpactLevel {
		return
	}
	if err := n.send(formatEvent(ev)); err != nil {
		logger.Warn("telegram notification failed for event %s: %v", ev.Event.ID, err)
	}
}

func (n *Notifier) send(message string) error {
	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		_, err := n.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(n.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", n.maxRetries, lastErr)
}

// formatEvent renders one event as a MarkdownV2 message.
func formatEvent(ev engine.SimulationEvent) string {
	directionEmoji := "📈"
	if ev.Event.Sentiment < 0 {
		directionEmoji = "📉"
	}

	message := fmt.Sprintf("%s *%s*\n\n", directionEmoji, escapeMarkdownV2(ev.Event.Title))
	message += fmt.Sprintf("🏷 카테고리: %s\n", escapeMarkdownV2(ev.Event.Category))
	message += fmt.Sprintf("💥 영향 수준: %d/5\n", ev.Event.ImpactLevel)
	message += fmt.Sprintf("🎯 영향 종목: %d개\n", len(ev.AffectedInstruments))
	message += fmt.Sprintf("📊 시장 영향도: %s\n", escapeMarkdownV2(fmt.Sprintf("%.3f", ev.MarketImpact)))
	message += fmt.Sprintf("🕒 %s", escapeMarkdownV2(ev.SimulatedTime.Format("2006-01-02 15:04:05")))

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
