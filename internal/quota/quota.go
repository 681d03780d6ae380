// Package quota guards the monthly request budget for paid recognition
// calls. The Vision free tier covers 1000 requests per month; the counter
// stops intake a little short of that so a burst near the boundary cannot
// tip the project into billing.
//
// The counter is keyed by calendar month and resets automatically when the
// observed month changes. State lives in a small JSON file next to the
// process so the guard also works for the CLI commands, which run without a
// database.
package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrLimitExceeded is returned by Increment once the monthly ceiling is
// reached. Callers must translate it into a user-visible condition distinct
// from generic recognition failures.
var ErrLimitExceeded = errors.New("monthly recognition request limit exceeded")

// DefaultMonthlyLimit stops short of the Vision free tier (1000/month).
const DefaultMonthlyLimit = 950

// Counter tracks recognition usage per calendar month.
type Counter interface {
	// Increment records one request for the given month key and returns the
	// new count, or ErrLimitExceeded when the budget is exhausted. The check
	// and the increment are atomic.
	Increment(monthKey string) (int, error)
}

// MonthKey formats t as the counter key for its calendar month ("2026-02").
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

type usageState struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// FileCounter is a Counter backed by a JSON usage file.
type FileCounter struct {
	mu    sync.Mutex
	path  string
	limit int
}

// NewFileCounter creates a file-backed counter. A zero or negative limit
// falls back to DefaultMonthlyLimit.
func NewFileCounter(path string, limit int) *FileCounter {
	if limit <= 0 {
		limit = DefaultMonthlyLimit
	}
	return &FileCounter{path: path, limit: limit}
}

// Increment implements Counter.
func (c *FileCounter) Increment(monthKey string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.load()
	if err != nil {
		return 0, err
	}

	// month rolled over: start a fresh budget
	if state.Month != monthKey {
		state.Month = monthKey
		state.Count = 0
	}

	if state.Count >= c.limit {
		return state.Count, fmt.Errorf("%w: usage %d/%d for %s", ErrLimitExceeded, state.Count, c.limit, monthKey)
	}

	state.Count++
	if err := c.save(state); err != nil {
		return 0, err
	}
	return state.Count, nil
}

func (c *FileCounter) load() (usageState, error) {
	var state usageState
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("quota: read usage file: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupted usage file resets the counter rather than blocking
		// recognition for the rest of the month.
		return usageState{}, nil
	}
	return state, nil
}

func (c *FileCounter) save(state usageState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("quota: encode usage state: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("quota: write usage file: %w", err)
	}
	return nil
}
