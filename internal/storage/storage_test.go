package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sams-market/simengine/internal/models"
)

func testEvent(id string) models.Event {
	return models.Event{
		ID:          id,
		Title:       "반도체 수출 급증",
		Category:    "기술",
		Sentiment:   0.6,
		ImpactLevel: 3,
		Duration:    models.DurationMid,
	}
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	return New(100, 100, filepath.Join(t.TempDir(), "data.json"), 0o644, 0o755)
}

func saveLogs(t *testing.T, s *Storage, simID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ev-%d", i)
		err := s.SaveEventLog(&EventLog{
			SimID:         simID,
			EventID:       id,
			Event:         testEvent(id),
			MarketImpact:  0.4,
			SimulatedTime: time.Now(),
		})
		if err != nil {
			t.Fatalf("SaveEventLog: %v", err)
		}
	}
}

func TestSaveAndGetEventLog(t *testing.T) {
	s := newTestStorage(t)
	saveLogs(t, s, "run-1", 1)

	got, err := s.GetEventLog("run-1", "ev-0")
	if err != nil {
		t.Fatalf("GetEventLog: %v", err)
	}
	if got.Event.Title != "반도체 수출 급증" {
		t.Errorf("Title = %q", got.Event.Title)
	}

	if _, err := s.GetEventLog("run-1", "missing"); err == nil {
		t.Error("expected error for unknown event ID")
	}
	if _, err := s.GetEventLog("missing", "ev-0"); err == nil {
		t.Error("expected error for unknown run ID")
	}
}

func TestSaveEventLogRejectsInvalid(t *testing.T) {
	s := newTestStorage(t)
	err := s.SaveEventLog(&EventLog{SimID: "run-1", EventID: "ev-0"})
	if err == nil {
		t.Error("expected validation error for empty event")
	}
}

func TestListEventLogsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	saveLogs(t, s, "run-1", 5)

	logs, next, err := s.ListEventLogs("run-1", 2, "")
	if err != nil {
		t.Fatalf("ListEventLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].EventID != "ev-4" || logs[1].EventID != "ev-3" {
		t.Fatalf("unexpected first page: %v", logs)
	}
	if next != "ev-3" {
		t.Fatalf("next cursor = %q, want ev-3", next)
	}

	logs, next, err = s.ListEventLogs("run-1", 10, next)
	if err != nil {
		t.Fatalf("ListEventLogs page 2: %v", err)
	}
	if len(logs) != 3 || logs[0].EventID != "ev-2" || logs[2].EventID != "ev-0" {
		t.Fatalf("unexpected second page: %v", logs)
	}
	if next != "" {
		t.Errorf("final cursor = %q, want empty", next)
	}

	if _, _, err := s.ListEventLogs("run-1", 2, "bogus"); err == nil {
		t.Error("expected error for unknown cursor")
	}
}

func TestGetRecentEventsForContext(t *testing.T) {
	s := newTestStorage(t)
	saveLogs(t, s, "run-1", 7)

	events := s.GetRecentEventsForContext("run-1", 3)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].ID != "ev-6" || events[2].ID != "ev-4" {
		t.Errorf("unexpected order: %v", events)
	}

	if got := s.GetRecentEventsForContext("missing", 3); len(got) != 0 {
		t.Errorf("unknown run returned %d events", len(got))
	}
}

func TestNewsArticles(t *testing.T) {
	s := newTestStorage(t)
	saveLogs(t, s, "run-1", 1)

	record := &NewsRecord{
		SimID:   "run-1",
		EventID: "ev-0",
		News:    models.News{ID: "news-1", Outlet: "한국경제신문", ArticleText: "본문"},
	}
	if err := s.SaveNewsArticle(record); err != nil {
		t.Fatalf("SaveNewsArticle: %v", err)
	}

	articles := s.GetNewsArticlesForEvent("run-1", "ev-0")
	if len(articles) != 1 || articles[0].ID != "news-1" {
		t.Fatalf("unexpected articles: %v", articles)
	}

	if err := s.SaveNewsArticle(&NewsRecord{SimID: "run-1"}); err == nil {
		t.Error("expected error for missing event ID")
	}
}

func TestSnapshots(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < 3; i++ {
		err := s.SaveMarketSnapshot(&Snapshot{
			SimID: "run-1",
			Instruments: []models.InstrumentState{
				{Ticker: "005930", BasePrice: 70000, CurrentPrice: 70000 + float64(i)*100, Volume: 1000},
			},
			SimulatedTime: time.Now(),
		})
		if err != nil {
			t.Fatalf("SaveMarketSnapshot: %v", err)
		}
	}

	latest, err := s.GetLatestSnapshot("run-1")
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if latest.Instruments[0].CurrentPrice != 70200 {
		t.Errorf("CurrentPrice = %v, want 70200", latest.Instruments[0].CurrentPrice)
	}

	if _, err := s.GetLatestSnapshot("missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := New(100, 100, path, 0o644, 0o755)
	saveLogs(t, s, "run-1", 2)
	if err := s.SaveNewsArticle(&NewsRecord{
		SimID:   "run-1",
		EventID: "ev-0",
		News:    models.News{ID: "news-1", Outlet: "한국경제신문", ArticleText: "본문"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := New(100, 100, path, 0o644, 0o755)
	if err := restored.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := restored.GetEventLog("run-1", "ev-1"); err != nil {
		t.Errorf("restored log missing: %v", err)
	}
	if articles := restored.GetNewsArticlesForEvent("run-1", "ev-0"); len(articles) != 1 {
		t.Errorf("restored %d articles, want 1", len(articles))
	}
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	s := New(100, 100, filepath.Join(t.TempDir(), "nope.json"), 0o644, 0o755)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
}

func TestRotateEventLogs(t *testing.T) {
	s := New(3, 100, filepath.Join(t.TempDir(), "data.json"), 0o644, 0o755)
	saveLogs(t, s, "run-1", 5)
	if err := s.SaveNewsArticle(&NewsRecord{
		SimID:   "run-1",
		EventID: "ev-0",
		News:    models.News{ID: "news-1", Outlet: "한국경제신문", ArticleText: "본문"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.RotateEventLogs(); err != nil {
		t.Fatalf("RotateEventLogs: %v", err)
	}

	if _, err := s.GetEventLog("run-1", "ev-0"); err == nil {
		t.Error("oldest log should be rotated out")
	}
	if _, err := s.GetEventLog("run-1", "ev-4"); err != nil {
		t.Errorf("newest log missing after rotation: %v", err)
	}
	// Articles tied to rotated events go with them.
	if articles := s.GetNewsArticlesForEvent("run-1", "ev-0"); len(articles) != 0 {
		t.Errorf("rotated event still has %d articles", len(articles))
	}
}

func TestRotateSnapshots(t *testing.T) {
	s := New(100, 2, filepath.Join(t.TempDir(), "data.json"), 0o644, 0o755)
	for i := 0; i < 5; i++ {
		if err := s.SaveMarketSnapshot(&Snapshot{
			SimID: "run-1",
			Instruments: []models.InstrumentState{
				{Ticker: "005930", BasePrice: 70000, CurrentPrice: 70000 + float64(i), Volume: 1},
			},
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.RotateSnapshots(); err != nil {
		t.Fatalf("RotateSnapshots: %v", err)
	}

	latest, err := s.GetLatestSnapshot("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Instruments[0].CurrentPrice != 70004 {
		t.Errorf("latest snapshot price = %v, want 70004", latest.Instruments[0].CurrentPrice)
	}
}

func TestDropRun(t *testing.T) {
	s := newTestStorage(t)
	saveLogs(t, s, "run-1", 2)
	saveLogs(t, s, "run-2", 2)

	s.DropRun("run-1")

	if _, err := s.GetEventLog("run-1", "ev-0"); err == nil {
		t.Error("dropped run still has logs")
	}
	if _, err := s.GetEventLog("run-2", "ev-0"); err != nil {
		t.Errorf("other run affected: %v", err)
	}
}
