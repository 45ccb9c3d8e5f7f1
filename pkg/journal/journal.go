// Package journal keeps a local file of submitted swaps so their records
// can be saved or updated after the fact.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

const DefaultFileName = ".sol-swap-journal.json"

// Entry is one submitted swap.
type Entry struct {
	ID        string                  `json:"id"`
	Signature string                  `json:"signature"`
	RecordID  string                  `json:"record_id,omitempty"`
	Persisted bool                    `json:"persisted"`
	Status    types.TransactionStatus `json:"status"`
	Record    types.TransactionRecord `json:"record"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type fileFormat struct {
	Entries map[string]*Entry `json:"entries"`
}

// Journal is a JSON file keyed by signature.
type Journal struct {
	filePath string
	mu       sync.RWMutex
	entries  map[string]*Entry
	now      func() time.Time
}

// Open loads the journal at filePath, creating it on first write.
func Open(filePath string) (*Journal, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultFileName)
	}

	j := &Journal{
		filePath: filePath,
		entries:  make(map[string]*Entry),
		now:      time.Now,
	}
	if err := j.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	return j, nil
}

func (j *Journal) load() error {
	data, err := os.ReadFile(j.filePath)
	if err != nil {
		return err
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal journal: %w", err)
	}
	if f.Entries != nil {
		j.entries = f.Entries
	}
	return nil
}

// saveLocked writes via a temp file and rename. Caller holds mu.
func (j *Journal) saveLocked() error {
	data, err := json.MarshalIndent(fileFormat{Entries: j.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := j.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	if err := os.Rename(tmp, j.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Append records a newly submitted swap.
func (j *Journal) Append(signature string, rec types.TransactionRecord) (*Entry, error) {
	if signature == "" {
		return nil, apperror.Validation("signature is required")
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if e, ok := j.entries[signature]; ok {
		cp := *e
		return &cp, nil
	}
	now := j.now()
	e := &Entry{
		ID:        uuid.NewString(),
		Signature: signature,
		Status:    rec.Status,
		Record:    rec,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.Status == "" {
		e.Status = types.StatusPending
	}
	j.entries[signature] = e
	if err := j.saveLocked(); err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

// MarkPersisted stores the backend id assigned to the record.
func (j *Journal) MarkPersisted(signature, recordID string) error {
	return j.update(signature, func(e *Entry) {
		e.Persisted = true
		e.RecordID = recordID
		e.Record.ID = recordID
	})
}

// SetStatus records the ledger outcome of a swap.
func (j *Journal) SetStatus(signature string, status types.TransactionStatus) error {
	return j.update(signature, func(e *Entry) {
		e.Status = status
		e.Record.Status = status
	})
}

func (j *Journal) update(signature string, fn func(*Entry)) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[signature]
	if !ok {
		return apperror.New(apperror.CodeNotFound,
			apperror.WithMessage(fmt.Sprintf("signature '%s' not in journal", signature)))
	}
	fn(e)
	e.UpdatedAt = j.now()
	return j.saveLocked()
}

// Get returns the entry for signature.
func (j *Journal) Get(signature string) (*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, ok := j.entries[signature]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound,
			apperror.WithMessage(fmt.Sprintf("signature '%s' not in journal", signature)))
	}
	cp := *e
	return &cp, nil
}

// List returns all entries, newest first.
func (j *Journal) List() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Unsettled returns entries that are still pending or were never saved to
// the backend.
func (j *Journal) Unsettled() []Entry {
	var out []Entry
	for _, e := range j.List() {
		if e.Status == types.StatusPending || !e.Persisted {
			out = append(out, e)
		}
	}
	return out
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.filePath
}
