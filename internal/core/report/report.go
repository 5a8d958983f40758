// Package report persists validation runs and their per-rule results.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/casecheck/casecheck/internal/core/db"
	"github.com/casecheck/casecheck/internal/types"
)

// Run is a persisted validation run.
type Run struct {
	RunID       string `db:"run_id" json:"run_id"`
	CaseName    string `db:"case_name" json:"case_name"`
	StartedAt   string `db:"started_at" json:"started_at"`
	PassedCount int    `db:"passed_count" json:"passed_count"`
	FailedCount int    `db:"failed_count" json:"failed_count"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// StoredResult is a persisted per-rule result row.
type StoredResult struct {
	RunID       string `db:"run_id" json:"run_id"`
	Seq         int    `db:"seq" json:"seq"`
	RuleType    string `db:"rule_type" json:"rule_type"`
	Path        string `db:"path" json:"path"`
	Passed      bool   `db:"passed" json:"passed"`
	Actual      string `db:"actual" json:"actual"`
	Expected    string `db:"expected" json:"expected"`
	Description string `db:"description" json:"description"`
	Error       string `db:"error" json:"error"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// RunStore writes runs to the database and, best-effort, to daily JSONL
// files for debugging. Database is source of truth, JSONL is debugging aid.
type RunStore struct {
	queries *db.Queries
	dataDir string
	logger  *slog.Logger

	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// NewRunStore creates a store writing to the given queries and data
// directory. Auto-creates the runs directory if not exists.
func NewRunStore(queries *db.Queries, dataDir string, logger *slog.Logger) (*RunStore, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	runsDir := filepath.Join(dataDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return nil, err
	}

	return &RunStore{
		queries:      queries,
		dataDir:      dataDir,
		logger:       logger,
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

// SaveRun persists a run with all its results and returns the run ID.
func (s *RunStore) SaveRun(caseName string, startedAt time.Time, results []types.ValidationResult) (types.RunID, error) {
	runID := types.NewRunID()

	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.queries.Exec("insert-run",
		string(runID), caseName, startedAt.UTC().Format(time.RFC3339), passed, failed, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, r := range results {
		_, err := s.queries.Exec("insert-result",
			string(runID), i, r.Type, r.Path, r.Passed,
			jsonField(r.Actual), jsonField(r.Expected), r.Description, r.Error, now)
		if err != nil {
			return "", fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	s.appendJSONL(runID, caseName, startedAt, results)
	return runID, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID types.RunID) (*Run, error) {
	var run Run
	if err := s.queries.Get("get-run", &run, string(runID)); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	if err := s.queries.Select("list-runs", &runs, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// ListResults returns the stored results of a run in rule order.
func (s *RunStore) ListResults(runID types.RunID) ([]StoredResult, error) {
	var results []StoredResult
	if err := s.queries.Select("list-results", &results, string(runID)); err != nil {
		return nil, fmt.Errorf("failed to list results for run %s: %w", runID, err)
	}
	return results, nil
}

// runRecord is the JSONL line shape for a saved run.
type runRecord struct {
	RunID     string                   `json:"run_id"`
	CaseName  string                   `json:"case_name"`
	StartedAt string                   `json:"started_at"`
	Results   []types.ValidationResult `json:"results"`
}

// appendJSONL writes the run to the daily JSONL file. Failures are
// logged and ignored.
func (s *RunStore) appendJSONL(runID types.RunID, caseName string, startedAt time.Time, results []types.ValidationResult) {
	// Filename fixed at save time so one run never spans two files
	filename := filepath.Join(s.dataDir, "runs", time.Now().UTC().Format("2006-01-02.jsonl"))
	mu := s.getJSONLMutex(filename)

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.logger.Warn("failed to open run log", "file", filename, "error", err)
		return
	}
	defer f.Close()

	record := runRecord{
		RunID:     string(runID),
		CaseName:  caseName,
		StartedAt: startedAt.UTC().Format(time.RFC3339),
		Results:   results,
	}
	if err := json.NewEncoder(f).Encode(record); err != nil {
		s.logger.Warn("failed to append run log", "file", filename, "error", err)
	}
}

// getJSONLMutex returns the mutex for given filename, creating if not
// exists. Per-file mutex protects concurrent writes to the same daily
// file; the map grows by ~1 entry/day.
func (s *RunStore) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}

// jsonField serializes a value for storage in a TEXT column.
func jsonField(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
