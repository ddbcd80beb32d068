// Package pipeline orchestrates an ingestion run: fetch articles from
// the Guardian, skip the ones already processed, summarize the rest and
// persist them.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"newsbrief/internal/guardian"
	"newsbrief/internal/ledger"
	"newsbrief/internal/slug"
	"newsbrief/internal/store"
	"newsbrief/internal/summarizer"
	"newsbrief/internal/textutil"
)

// Fetcher retrieves articles from the upstream content API
type Fetcher interface {
	FetchAll(ctx context.Context, opts guardian.SearchOptions) ([]guardian.Article, error)
}

// Summarizer turns article body text into structured summary output
type Summarizer interface {
	Summarize(ctx context.Context, bodyText string) (*summarizer.Summary, error)
}

// Stage names reported through the progress callback
const (
	StageFetching   = "fetching"
	StageFiltering  = "filtering"
	StageProcessing = "processing"
	StageCompleted  = "completed"
)

// Progress is a snapshot of a running ingestion, delivered to the
// optional OnProgress callback after every state change.
type Progress struct {
	Stage     string `json:"stage"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Message   string `json:"message,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Stats summarizes a completed ingestion run
type Stats struct {
	TotalFetched     int           `json:"total_fetched"`
	AlreadyProcessed int           `json:"already_processed"`
	NewlyProcessed   int           `json:"newly_processed"`
	Skipped          int           `json:"skipped"`
	Errors           int           `json:"errors"`
	ErrorMessages    []string      `json:"error_messages,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// Options controls a single run
type Options struct {
	Query      string
	FromDate   string // YYYY-MM-DD
	ToDate     string // YYYY-MM-DD
	OnProgress func(Progress)
}

// Processor wires the ingestion stages together
type Processor struct {
	fetcher    Fetcher
	summarizer Summarizer
	ledger     ledger.Ledger
	store      store.Store
	itemDelay  time.Duration
	minBodyLen int
}

// NewProcessor creates an ingestion processor over the given collaborators
func NewProcessor(fetcher Fetcher, sum Summarizer, led ledger.Ledger, st store.Store, itemDelay time.Duration, minBodyLen int) *Processor {
	return &Processor{
		fetcher:    fetcher,
		summarizer: sum,
		ledger:     led,
		store:      st,
		itemDelay:  itemDelay,
		minBodyLen: minBodyLen,
	}
}

func (p *Processor) report(opts Options, prog Progress) {
	if opts.OnProgress != nil {
		opts.OnProgress(prog)
	}
}

// Run executes one ingestion pass. A failing article is counted and
// logged but never aborts the run; only a failed fetch of the first
// page does.
func (p *Processor) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	log.Printf("📡 Starting ingestion run (query=%q from=%s to=%s)", opts.Query, opts.FromDate, opts.ToDate)
	p.report(opts, Progress{Stage: StageFetching})

	articles, err := p.fetcher.FetchAll(ctx, guardian.SearchOptions{
		Query:    opts.Query,
		FromDate: opts.FromDate,
		ToDate:   opts.ToDate,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}

	stats.TotalFetched = len(articles)
	log.Printf("📄 Fetched %d articles", len(articles))
	p.report(opts, Progress{Stage: StageFiltering, Total: len(articles)})

	var pending []guardian.Article
	for _, article := range articles {
		processed, err := p.ledger.IsProcessed(ctx, article.ID)
		if err != nil {
			return nil, fmt.Errorf("checking processed index: %w", err)
		}
		if processed {
			stats.AlreadyProcessed++
			continue
		}
		pending = append(pending, article)
	}

	log.Printf("📋 %d already processed, %d new", stats.AlreadyProcessed, len(pending))

	for i, article := range pending {
		p.report(opts, Progress{
			Stage:   StageProcessing,
			Current: i + 1,
			Total:   len(pending),
			Message: article.WebTitle,
		})

		if err := p.processArticle(ctx, article, stats); err != nil {
			if ctx.Err() != nil {
				stats.Duration = time.Since(start)
				return stats, ctx.Err()
			}
			stats.Errors++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", article.ID, err))
			log.Printf("⚠️ Processing %s failed: %v", article.ID, err)
		}

		// Courtesy pause between items, skipped after the last one
		if p.itemDelay > 0 && i < len(pending)-1 {
			select {
			case <-ctx.Done():
				stats.Duration = time.Since(start)
				return stats, ctx.Err()
			case <-time.After(p.itemDelay):
			}
		}
	}

	stats.Duration = time.Since(start)
	p.report(opts, Progress{Stage: StageCompleted, Current: len(pending), Total: len(pending)})
	log.Printf("🎉 Ingestion complete: %d new, %d skipped, %d errors in %s",
		stats.NewlyProcessed, stats.Skipped, stats.Errors, stats.Duration.Round(time.Millisecond))

	return stats, nil
}

func (p *Processor) processArticle(ctx context.Context, article guardian.Article, stats *Stats) error {
	body := ""
	if article.Fields != nil {
		body = article.Fields.BodyText
		if body == "" {
			body = textutil.ExtractText(article.Fields.Body)
		}
	}

	if len(body) < p.minBodyLen {
		stats.Skipped++
		log.Printf("⏭️ Skipping %s: body too short (%d chars)", article.ID, len(body))
		return nil
	}

	summary, err := p.summarizer.Summarize(ctx, body)
	if err != nil {
		return fmt.Errorf("summarizing: %w", err)
	}

	base := slug.Make(article.WebTitle)
	finalSlug, err := slug.Resolve(ctx, base, p.store.SlugExists)
	if err != nil {
		return fmt.Errorf("resolving slug: %w", err)
	}

	stored := &store.Article{
		Title:       article.WebTitle,
		Slug:        finalSlug,
		Category:    summary.Category,
		Summary:     summary.Summary,
		TLDR:        summary.TLDR,
		FAQs:        toStoreFAQs(summary.FAQs),
		PublishedAt: article.WebPublicationDate,
		OriginalURL: article.WebURL,
		GuardianID:  article.ID,
		Section:     article.SectionName,
		Pillar:      article.PillarName,
	}
	if article.Fields != nil {
		stored.Thumbnail = article.Fields.Thumbnail
	}

	// Backends that can write the article and the ledger entry in one
	// transaction get to, closing the gap where a crash between the two
	// writes would leave a stored article unmarked.
	if atomic, ok := p.store.(store.AtomicCreator); ok {
		if err := atomic.CreateAndMark(ctx, stored); err != nil {
			return fmt.Errorf("storing article: %w", err)
		}
	} else {
		if err := p.store.Create(ctx, stored); err != nil {
			return fmt.Errorf("storing article: %w", err)
		}
		if err := p.ledger.MarkProcessed(ctx, article.ID, finalSlug); err != nil {
			return fmt.Errorf("marking processed: %w", err)
		}
	}

	stats.NewlyProcessed++
	log.Printf("✅ Processed %s as %s", article.ID, finalSlug)
	return nil
}

func toStoreFAQs(faqs []summarizer.FAQ) []store.FAQ {
	out := make([]store.FAQ, len(faqs))
	for i, f := range faqs {
		out[i] = store.FAQ{Question: f.Question, Answer: f.Answer}
	}
	return out
}
