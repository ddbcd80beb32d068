package application

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsbrief/internal/guardian"
	"newsbrief/internal/infrastructure"
	"newsbrief/internal/ledger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/store"
	"newsbrief/internal/summarizer"
	"newsbrief/internal/transport/handler"
)

// Application wires configuration, storage backends and the ingestion
// pipeline together and exposes the HTTP handlers built on top of them.
type Application struct {
	Config    *infrastructure.Config
	Store     store.Store
	Ledger    ledger.Ledger
	Processor *pipeline.Processor

	ProcessHandler    *handler.Process
	ArticlesHandler   *handler.Articles
	CategoriesHandler *handler.Categories
	StatsHandler      *handler.Stats
	HealthHandler     *handler.Health

	cleanup func() error
}

// New creates a fully wired application instance
func New(ctx context.Context) (*Application, error) {
	cfg, err := infrastructure.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig wires the application over an already validated config
func NewWithConfig(ctx context.Context, cfg *infrastructure.Config) (*Application, error) {
	st, led, cleanup, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	guardianClient := guardian.NewClient(cfg.GuardianAPIKey, cfg.GuardianBaseURL,
		guardian.WithPageSize(cfg.PageSize),
		guardian.WithMaxPages(cfg.MaxPages),
		guardian.WithPageDelay(cfg.PageDelay),
	)
	summarizerClient := summarizer.NewClient(cfg.SummarizerAPIKey, cfg.SummarizerModel, cfg.SummarizerBaseURL)

	processor := pipeline.NewProcessor(guardianClient, summarizerClient, led, st, cfg.ItemDelay, cfg.MinBodyLength)

	return &Application{
		Config:            cfg,
		Store:             st,
		Ledger:            led,
		Processor:         processor,
		ProcessHandler:    handler.NewProcess(processor),
		ArticlesHandler:   handler.NewArticles(st, led),
		CategoriesHandler: handler.NewCategories(st, summarizerClient),
		StatsHandler:      handler.NewStats(st, led),
		HealthHandler:     handler.NewHealth(),
		cleanup:           cleanup,
	}, nil
}

// buildStorage selects the store and ledger backends. The postgres and
// gcs backends share one connection handle between the two.
func buildStorage(ctx context.Context, cfg *infrastructure.Config) (store.Store, ledger.Ledger, func() error, error) {
	switch cfg.StoreBackend {
	case "file":
		st, err := store.NewFileStore(cfg.ContentDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating file store: %w", err)
		}
		led, err := ledger.NewFileLedger(cfg.LedgerPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating file ledger: %w", err)
		}
		cleanup := func() error {
			led.Close()
			return st.Close()
		}
		return st, led, cleanup, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		st, err := store.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("creating postgres store: %w", err)
		}
		led, err := ledger.NewPostgresLedger(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("creating postgres ledger: %w", err)
		}
		cleanup := func() error {
			led.Close()
			pool.Close()
			return nil
		}
		return st, led, cleanup, nil

	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating storage client: %w", err)
		}
		st := store.NewGCSStore(client, cfg.GCSBucket)
		led := ledger.NewGCSLedger(client, cfg.GCSBucket)
		cleanup := func() error {
			led.Close()
			st.Close()
			return client.Close()
		}
		return st, led, cleanup, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// Close cleans up application resources
func (a *Application) Close() error {
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
