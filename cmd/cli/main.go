package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"newsbrief/internal/application"
	"newsbrief/internal/pipeline"
)

func main() {
	var (
		query    = flag.String("query", "", "Search query (default: SEARCH_QUERY from the environment)")
		fromDate = flag.String("from", "", "Earliest publication date, YYYY-MM-DD")
		toDate   = flag.String("to", "", "Latest publication date, YYYY-MM-DD")
		asJSON   = flag.Bool("json", false, "Print run stats as JSON")
	)
	flag.Parse()

	ctx := context.Background()

	app, err := application.New(ctx)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	q := *query
	if q == "" {
		q = app.Config.SearchQuery
	}

	stats, err := app.Processor.Run(ctx, pipeline.Options{
		Query:    q,
		FromDate: *fromDate,
		ToDate:   *toDate,
	})
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	if *asJSON {
		json.NewEncoder(os.Stdout).Encode(stats)
		return
	}

	fmt.Printf("Fetched:           %d\n", stats.TotalFetched)
	fmt.Printf("Already processed: %d\n", stats.AlreadyProcessed)
	fmt.Printf("Newly processed:   %d\n", stats.NewlyProcessed)
	fmt.Printf("Skipped:           %d\n", stats.Skipped)
	fmt.Printf("Errors:            %d\n", stats.Errors)
	fmt.Printf("Duration:          %s\n", stats.Duration)
	for _, msg := range stats.ErrorMessages {
		fmt.Printf("  error: %s\n", msg)
	}

	if stats.Errors > 0 {
		os.Exit(1)
	}
}
