// Package storage provides thread-safe in-memory storage with file-based
// persistence for simulation runs. It keeps per-run event logs, generated
// news articles, and market snapshots, with automatic rotation to prevent
// unbounded memory growth.
//
// Storage is designed for reliability with atomic file writes and graceful
// handling of persistence failures. Data is persisted to JSON files and can
// be restored on application restart.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sams-market/simengine/internal/market"
	"github.com/sams-market/simengine/internal/models"
)

// EventLog is one recorded simulation event with its market effect.
type EventLog struct {
	SimID               string            `json:"sim_id"`
	EventID             string            `json:"event_id"`
	Event               models.Event      `json:"event"`
	AffectedInstruments []string          `json:"affected_instruments"`
	MarketImpact        float64           `json:"market_impact"`
	SimulatedTime       time.Time         `json:"simulated_time"`
	Meta                map[string]string `json:"meta,omitempty"`
	SavedAt             time.Time         `json:"saved_at"`
}

// Validate checks the log's required fields.
func (l *EventLog) Validate() error {
	if l.SimID == "" {
		return fmt.Errorf("event log sim ID must not be empty")
	}
	if l.EventID == "" {
		return fmt.Errorf("event log event ID must not be empty")
	}
	return l.Event.Validate()
}

// NewsRecord is one persisted article tied to an event.
type NewsRecord struct {
	SimID   string            `json:"sim_id"`
	EventID string            `json:"event_id"`
	News    models.News       `json:"news"`
	Meta    map[string]string `json:"meta,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// Snapshot is the full market state at one simulated instant.
type Snapshot struct {
	SimID         string                   `json:"sim_id"`
	Instruments   []models.InstrumentState `json:"instruments"`
	Params        market.Params            `json:"market_params"`
	SimulatedTime time.Time                `json:"simulated_time"`
	Meta          map[string]string        `json:"meta,omitempty"`
	SavedAt       time.Time                `json:"saved_at"`
}

// Storage provides thread-safe in-memory storage with file-based persistence.
type Storage struct {
	eventLogs map[string][]EventLog               // simID -> chronological logs
	news      map[string]map[string][]NewsRecord  // simID -> eventID -> articles
	snapshots map[string][]Snapshot               // simID -> chronological snapshots
	mu        sync.RWMutex

	maxEventLogsPerRun int
	maxSnapshotsPerRun int
	filePath           string
	filePermissions    os.FileMode
	dirPermissions     os.FileMode
}

// PersistenceFile represents the file structure for JSON persistence.
type PersistenceFile struct {
	Version   string                             `json:"version"`
	SavedAt   time.Time                          `json:"saved_at"`
	EventLogs map[string][]EventLog              `json:"event_logs"`
	News      map[string]map[string][]NewsRecord `json:"news"`
	Snapshots map[string][]Snapshot              `json:"snapshots"`
}

// New creates a Storage instance with persistence at filePath.
// If filePath is empty, an OS-appropriate tmp directory is used.
func New(maxEventLogsPerRun, maxSnapshotsPerRun int, filePath string, filePermissions, dirPermissions os.FileMode) *Storage {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "simengine", "data.json")
	}

	return &Storage{
		eventLogs:          make(map[string][]EventLog),
		news:               make(map[string]map[string][]NewsRecord),
		snapshots:          make(map[string][]Snapshot),
		maxEventLogsPerRun: maxEventLogsPerRun,
		maxSnapshotsPerRun: maxSnapshotsPerRun,
		filePath:           filePath,
		filePermissions:    filePermissions,
		dirPermissions:     dirPermissions,
	}
}

// SaveEventLog records one simulation event.
func (s *Storage) SaveEventLog(log *EventLog) error {
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid event log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *log
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now()
	}
	s.eventLogs[entry.SimID] = append(s.eventLogs[entry.SimID], entry)
	return nil
}

// GetEventLog retrieves one event log by run and event ID.
func (s *Storage) GetEventLog(simID, eventID string) (*EventLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.eventLogs[simID] {
		if s.eventLogs[simID][i].EventID == eventID {
			entry := s.eventLogs[simID][i]
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("event log not found: %s/%s", simID, eventID)
}

// ListEventLogs returns up to limit logs for a run, newest first. A
// non-empty cursor resumes after the event ID it names; the returned cursor
// is empty when no more logs remain.
func (s *Storage) ListEventLogs(simID string, limit int, cursor string) ([]EventLog, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := s.eventLogs[simID]
	start := len(logs) - 1
	if cursor != "" {
		found := false
		for i := len(logs) - 1; i >= 0; i-- {
			if logs[i].EventID == cursor {
				start = i - 1
				found = true
				break
			}
		}
		if !found {
			return nil, "", fmt.Errorf("unknown cursor: %s", cursor)
		}
	}

	if limit <= 0 {
		limit = len(logs)
	}
	out := make([]EventLog, 0, limit)
	for i := start; i >= 0 && len(out) < limit; i-- {
		out = append(out, logs[i])
	}

	next := ""
	if len(out) > 0 {
		if last := out[len(out)-1]; last.EventID != logs[0].EventID {
			next = last.EventID
		}
	}
	return out, next, nil
}

// GetRecentEventsForContext returns the latest events of a run, newest
// first, for prompt-context embedding.
func (s *Storage) GetRecentEventsForContext(simID string, limit int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := s.eventLogs[simID]
	if limit <= 0 || limit > len(logs) {
		limit = len(logs)
	}
	out := make([]models.Event, 0, limit)
	for i := len(logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, logs[i].Event)
	}
	return out
}

// SaveNewsArticle records one generated article for an event.
func (s *Storage) SaveNewsArticle(record *NewsRecord) error {
	if record.SimID == "" || record.EventID == "" {
		return fmt.Errorf("news record sim ID and event ID must not be empty")
	}
	if err := record.News.Validate(); err != nil {
		return fmt.Errorf("invalid news record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *record
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now()
	}
	if s.news[entry.SimID] == nil {
		s.news[entry.SimID] = make(map[string][]NewsRecord)
	}
	s.news[entry.SimID][entry.EventID] = append(s.news[entry.SimID][entry.EventID], entry)
	return nil
}

// GetNewsArticlesForEvent returns all articles recorded for an event.
func (s *Storage) GetNewsArticlesForEvent(simID, eventID string) []models.News {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.news[simID][eventID]
	out := make([]models.News, 0, len(records))
	for _, r := range records {
		out = append(out, r.News)
	}
	return out
}

// SaveMarketSnapshot records the full market state at one instant.
func (s *Storage) SaveMarketSnapshot(snapshot *Snapshot) error {
	if snapshot.SimID == "" {
		return fmt.Errorf("snapshot sim ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *snapshot
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now()
	}
	s.snapshots[entry.SimID] = append(s.snapshots[entry.SimID], entry)
	return nil
}

// GetLatestSnapshot returns the most recent snapshot of a run.
func (s *Storage) GetLatestSnapshot(simID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[simID]
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no snapshots for run: %s", simID)
	}
	entry := snaps[len(snaps)-1]
	return &entry, nil
}

// Save persists storage state to file.
func (s *Storage) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := PersistenceFile{
		Version:   "1.0",
		SavedAt:   time.Now(),
		EventLogs: s.eventLogs,
		News:      s.news,
		Snapshots: s.snapshots,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, s.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Load restores storage state from file.
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp files from previous crashes
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		// No file to load, start fresh
		return nil
	}

	jsonData, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data PersistenceFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	s.eventLogs = data.EventLogs
	if s.eventLogs == nil {
		s.eventLogs = make(map[string][]EventLog)
	}
	s.news = data.News
	if s.news == nil {
		s.news = make(map[string]map[string][]NewsRecord)
	}
	s.snapshots = data.Snapshots
	if s.snapshots == nil {
		s.snapshots = make(map[string][]Snapshot)
	}

	return nil
}

// RotateEventLogs drops the oldest logs of each run beyond the configured
// limit. Articles tied to dropped events are removed with them.
func (s *Storage) RotateEventLogs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for simID, logs := range s.eventLogs {
		if len(logs) <= s.maxEventLogsPerRun {
			continue
		}
		start := len(logs) - s.maxEventLogsPerRun
		for _, dropped := range logs[:start] {
			if byEvent, ok := s.news[simID]; ok {
				delete(byEvent, dropped.EventID)
			}
		}
		s.eventLogs[simID] = logs[start:]
	}

	return nil
}

// RotateSnapshots removes old snapshots exceeding the per-run limit.
func (s *Storage) RotateSnapshots() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for simID, snaps := range s.snapshots {
		if len(snaps) > s.maxSnapshotsPerRun {
			start := len(snaps) - s.maxSnapshotsPerRun
			s.snapshots[simID] = snaps[start:]
		}
	}

	return nil
}

// DropRun removes all data recorded for one run.
func (s *Storage) DropRun(simID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.eventLogs, simID)
	delete(s.news, simID)
	delete(s.snapshots, simID)
}
