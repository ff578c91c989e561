// Package localstate manages the on-disk state for a single day of tracking:
// which checklist tasks are done, how many of each action were logged, and a
// rolling per-date score history. The CLI mutates it and the sync agent ships
// it to the server.
package localstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// State is the JSON structure persisted to the state file.
type State struct {
	Date         string          `json:"date"`
	Checklist    map[string]bool `json:"checklist"`
	Actions      map[string]int  `json:"actions"`
	Score        int             `json:"score"`
	ScoreHistory map[string]int  `json:"score_history"`
}

// Store reads and writes the local state file. All mutations load the current
// state, apply the change, and write the file back atomically, so concurrent
// CLI invocations see a consistent file.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// DefaultPath returns the standard state file location, creating the parent
// directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "cadence")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "today.json"), nil
}

// New creates a store backed by the given file path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, now: time.Now}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Snapshot returns a copy of the current state, rolled over to today if the
// file is from a previous day.
func (s *Store) Snapshot() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Toggle flips one checklist task and returns its new value.
func (s *Store) Toggle(taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return false, err
	}
	st.Checklist[taskID] = !st.Checklist[taskID]
	if err := s.save(st); err != nil {
		return false, err
	}
	return st.Checklist[taskID], nil
}

// Increment bumps one action counter and returns the new count.
func (s *Store) Increment(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return 0, err
	}
	st.Actions[key]++
	if err := s.save(st); err != nil {
		return 0, err
	}
	return st.Actions[key], nil
}

// RecordScore stores the computed score for today, both as the current score
// and in the per-date history.
func (s *Store) RecordScore(score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.Score = score
	st.ScoreHistory[st.Date] = score
	return s.save(st)
}

// ResetToday clears today's checklist and counters. Score history is
// historical data and survives the reset.
func (s *Store) ResetToday() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.Checklist = map[string]bool{}
	st.Actions = map[string]int{}
	st.Score = 0
	return s.save(st)
}

// WeeklyAverage returns the rounded mean of the most recent seven days of
// score history, 0 when there is none.
func (s *Store) WeeklyAverage() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return 0, err
	}

	dates := make([]string, 0, len(st.ScoreHistory))
	for date := range st.ScoreHistory {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > 7 {
		dates = dates[:7]
	}
	if len(dates) == 0 {
		return 0, nil
	}

	sum := 0
	for _, date := range dates {
		sum += st.ScoreHistory[date]
	}
	// Round half away from zero to match integer expectations downstream.
	return (sum + len(dates)/2) / len(dates), nil
}

// load reads the state file and applies day rollover. A missing or corrupt
// file yields a fresh state for today. Callers hold s.mu.
func (s *Store) load() (*State, error) {
	today := s.now().Format("2006-01-02")

	st := &State{Date: today}
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		return nil, fmt.Errorf("reading state file: %w", err)
	default:
		if uerr := json.Unmarshal(data, st); uerr != nil {
			s.logger.Warn("corrupt state file, starting fresh", "path", s.path, "error", uerr)
			st = &State{Date: today}
		}
	}

	if st.Checklist == nil {
		st.Checklist = map[string]bool{}
	}
	if st.Actions == nil {
		st.Actions = map[string]int{}
	}
	if st.ScoreHistory == nil {
		st.ScoreHistory = map[string]int{}
	}

	if st.Date != today {
		// New day: preserve yesterday's score, reset the daily data.
		if st.Date != "" {
			st.ScoreHistory[st.Date] = st.Score
		}
		st.Date = today
		st.Checklist = map[string]bool{}
		st.Actions = map[string]int{}
		st.Score = 0
		if err := s.save(st); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// save writes the state file atomically via a temp file and rename.
func (s *Store) save(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
