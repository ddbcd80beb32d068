package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// GCSLedger keeps the processed index as a single JSON object in a
// bucket, mirroring the file backend's load-once, write-through shape.
type GCSLedger struct {
	client  *storage.Client
	bucket  string
	object  string
	mu      sync.RWMutex
	entries map[string]Entry
	loaded  bool
}

// NewGCSLedger wraps an existing storage client
func NewGCSLedger(client *storage.Client, bucket string) *GCSLedger {
	return &GCSLedger{
		client:  client,
		bucket:  bucket,
		object:  "processed-index.json",
		entries: make(map[string]Entry),
	}
}

// load pulls the index object on first use. Caller holds the write lock.
func (l *GCSLedger) load(ctx context.Context) error {
	if l.loaded {
		return nil
	}

	reader, err := l.client.Bucket(l.bucket).Object(l.object).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			l.loaded = true
			return nil
		}
		return fmt.Errorf("opening ledger object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("reading ledger object: %w", err)
	}

	var stored []Entry
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parsing ledger object: %w", err)
	}
	for _, e := range stored {
		l.entries[e.GuardianID] = e
	}
	l.loaded = true
	return nil
}

// save writes the full index back. Caller holds the write lock.
func (l *GCSLedger) save(ctx context.Context) error {
	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}

	writer := l.client.Bucket(l.bucket).Object(l.object).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing ledger object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing ledger writer: %w", err)
	}
	return nil
}

func (l *GCSLedger) IsProcessed(ctx context.Context, guardianID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(ctx); err != nil {
		return false, err
	}
	_, ok := l.entries[guardianID]
	return ok, nil
}

func (l *GCSLedger) MarkProcessed(ctx context.Context, guardianID, slug string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(ctx); err != nil {
		return err
	}
	if _, ok := l.entries[guardianID]; ok {
		return nil
	}

	l.entries[guardianID] = Entry{
		GuardianID:  guardianID,
		Slug:        slug,
		ProcessedAt: time.Now(),
	}
	return l.save(ctx)
}

func (l *GCSLedger) Unmark(ctx context.Context, guardianID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(ctx); err != nil {
		return false, err
	}
	if _, ok := l.entries[guardianID]; !ok {
		return false, nil
	}

	delete(l.entries, guardianID)
	if err := l.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (l *GCSLedger) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(ctx); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})
	return entries, nil
}

// Close is a no-op; the shared storage client is owned by the caller
func (l *GCSLedger) Close() error {
	return nil
}
