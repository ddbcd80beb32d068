package mocks

import (
	"context"

	"newsbrief/internal/summarizer"
)

// Mock summarizer
type MockSummarizer struct {
	Err   error
	Calls int
	// FailOn makes the Nth call (1-based) return Err instead
	FailOn int
}

func (m *MockSummarizer) Summarize(ctx context.Context, bodyText string) (*summarizer.Summary, error) {
	m.Calls++
	if m.Err != nil && (m.FailOn == 0 || m.Calls == m.FailOn) {
		return nil, m.Err
	}
	return &summarizer.Summary{
		Summary:  "test summary",
		TLDR:     []string{"point one", "point two", "point three"},
		FAQs:     testFAQs(),
		Heading:  "Test Heading",
		Category: "Cricket",
	}, nil
}

func testFAQs() []summarizer.FAQ {
	faqs := make([]summarizer.FAQ, 5)
	for i := range faqs {
		faqs[i] = summarizer.FAQ{Question: "question", Answer: "answer"}
	}
	return faqs
}
