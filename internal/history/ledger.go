// Package history keeps a ledger of screening decisions on disk.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Record struct {
	SessionID       string    `json:"session_id"`
	ApplicationID   string    `json:"application_id,omitempty"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Selected        bool      `json:"selected"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	Feedback        string    `json:"feedback"`
	MeetingID       int64     `json:"meeting_id,omitempty"`
	JoinURL         string    `json:"join_url,omitempty"`
	DecidedAt       time.Time `json:"decided_at"`
}

type Records struct {
	Items []Record `json:"items"`
}

// Ledger appends decisions to a JSON file. An empty path disables it.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// NewLedger returns a ledger stored at path. The file is created on the first Append.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Enabled() bool {
	return l != nil && l.path != ""
}

func (l *Ledger) Path() string {
	return l.path
}

// Load returns every recorded decision. A missing or empty file is an empty ledger.
func (l *Ledger) Load() (*Records, error) {
	if !l.Enabled() {
		return &Records{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load()
}

// Append adds the record to the ledger file.
func (l *Ledger) Append(r Record) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}

	if r.DecidedAt.IsZero() {
		r.DecidedAt = time.Now()
	}
	records.Items = append(records.Items, r)

	return records.toFile(l.path)
}

func (l *Ledger) load() (*Records, error) {
	file, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Records{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Records{}, nil
	}

	var records Records
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode history file %s: %w", l.path, err)
	}
	return &records, nil
}

// toFile replaces the ledger through a temporary file so a crash never leaves it half-written.
func (r *Records) toFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
