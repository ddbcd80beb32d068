package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileLedger keeps the processed index in a single JSON file, loaded
// into memory at startup and written back synchronously on every
// mutation so a crash never loses a mark.
type FileLedger struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewFileLedger loads the index file, creating it on first use
func NewFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{
		path:    path,
		entries: make(map[string]Entry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("reading ledger file: %w", err)
	}

	var stored []Entry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("parsing ledger file %s: %w", path, err)
	}
	for _, e := range stored {
		l.entries[e.GuardianID] = e
	}
	return l, nil
}

// save writes the full index. Caller holds the write lock.
func (l *FileLedger) save() error {
	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger file: %w", err)
	}
	return nil
}

func (l *FileLedger) IsProcessed(ctx context.Context, guardianID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[guardianID]
	return ok, nil
}

func (l *FileLedger) MarkProcessed(ctx context.Context, guardianID, slug string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[guardianID]; ok {
		return nil
	}

	l.entries[guardianID] = Entry{
		GuardianID:  guardianID,
		Slug:        slug,
		ProcessedAt: time.Now(),
	}
	return l.save()
}

func (l *FileLedger) Unmark(ctx context.Context, guardianID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[guardianID]; !ok {
		return false, nil
	}

	delete(l.entries, guardianID)
	if err := l.save(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *FileLedger) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})
	return entries, nil
}

func (l *FileLedger) Close() error {
	return nil
}
