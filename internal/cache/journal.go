package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one audit event in the pipeline journal.
type Record struct {
	Timestamp time.Time `json:"ts"`
	Step      string    `json:"step"`
	Key       string    `json:"key,omitempty"`
	Lang      string    `json:"lang,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
}

// Journal is the append-only event log, one JSON object per line. It is
// safe for concurrent use by the translation workers.
type Journal struct {
	mu    sync.Mutex
	f     *os.File
	runID string
}

// OpenJournal opens (creating as needed) the journal at path for appending.
// Every appended record carries runID.
func OpenJournal(path, runID string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{f: f, runID: runID}, nil
}

// Append writes one record as a single line. A zero Timestamp is filled
// with the current time. Safe to call on a nil journal.
func (j *Journal) Append(rec Record) error {
	if j == nil {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.RunID = j.runID

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.f.Write(append(line, '\n'))
	return err
}

// Close releases the underlying file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.f.Close()
}
