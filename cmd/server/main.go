package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"newsbrief/internal/application"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/transport/server"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Newsbrief Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  GUARDIAN_API_KEY      Guardian content API key (required)\n")
		fmt.Printf("  SUMMARIZER_API_KEY    Summarization API key (required)\n")
		fmt.Printf("  ADMIN_AUTH_TOKEN      Bearer token for the admin API\n")
		fmt.Printf("  STORE_BACKEND         Storage backend: file, postgres or gcs (default: file)\n")
		fmt.Printf("  DATABASE_URL          Postgres connection string (postgres backend)\n")
		fmt.Printf("  GCS_BUCKET            Bucket name (gcs backend)\n")
		fmt.Printf("  FETCH_SCHEDULE        Cron expression for scheduled ingestion (default: 0 6 * * *)\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Newsbrief Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.New(ctx)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	router := server.NewRouter(app)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", app.Config.Host, app.Config.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // ingestion runs are slow
		IdleTimeout:  60 * time.Second,
	}

	// Scheduled ingestion
	c := cron.New()
	_, err = c.AddFunc(app.Config.FetchSchedule, func() {
		log.Printf("🕐 Scheduled ingestion starting")
		stats, err := app.Processor.Run(ctx, pipeline.Options{Query: app.Config.SearchQuery})
		if err != nil {
			log.Printf("❌ Scheduled ingestion failed: %v", err)
			return
		}
		log.Printf("✅ Scheduled ingestion completed: %d new, %d errors", stats.NewlyProcessed, stats.Errors)
	})
	if err != nil {
		log.Fatalf("Failed to schedule ingestion (%q): %v", app.Config.FetchSchedule, err)
	}
	log.Printf("📅 Scheduled ingestion with cron: %s", app.Config.FetchSchedule)

	c.Start()
	defer c.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Starting server on %s:%s (backend: %s)", app.Config.Host, app.Config.Port, app.Config.StoreBackend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-sigChan
	log.Println("🛑 Shutting down server...")

	cancel()
	c.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Server stopped")
}
