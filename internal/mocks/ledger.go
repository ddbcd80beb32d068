package mocks

import (
	"context"
	"time"

	"newsbrief/internal/ledger"
)

// Mock in-memory ledger
type MockLedger struct {
	Marked  map[string]string // guardian ID -> slug
	CheckEr error
	MarkErr error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{Marked: make(map[string]string)}
}

func (m *MockLedger) IsProcessed(ctx context.Context, guardianID string) (bool, error) {
	if m.CheckEr != nil {
		return false, m.CheckEr
	}
	_, ok := m.Marked[guardianID]
	return ok, nil
}

func (m *MockLedger) MarkProcessed(ctx context.Context, guardianID, slug string) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	if _, ok := m.Marked[guardianID]; !ok {
		m.Marked[guardianID] = slug
	}
	return nil
}

func (m *MockLedger) Unmark(ctx context.Context, guardianID string) (bool, error) {
	if _, ok := m.Marked[guardianID]; !ok {
		return false, nil
	}
	delete(m.Marked, guardianID)
	return true, nil
}

func (m *MockLedger) Entries(ctx context.Context) ([]ledger.Entry, error) {
	entries := make([]ledger.Entry, 0, len(m.Marked))
	for id, slug := range m.Marked {
		entries = append(entries, ledger.Entry{GuardianID: id, Slug: slug, ProcessedAt: time.Now()})
	}
	return entries, nil
}

func (m *MockLedger) Close() error {
	return nil
}
