package handler

import (
	"log"
	"net/http"

	"newsbrief/internal/ledger"
	"newsbrief/internal/store"
	"newsbrief/internal/transport/response"
)

// Stats serves the dashboard counters
type Stats struct {
	store  store.Store
	ledger ledger.Ledger
}

func NewStats(st store.Store, led ledger.Ledger) *Stats {
	return &Stats{store: st, ledger: led}
}

func (h *Stats) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		log.Printf("Error loading store stats: %v", err)
		response.WriteInternalError(w, "Failed to load stats")
		return
	}

	entries, err := h.ledger.Entries(ctx)
	if err != nil {
		log.Printf("Error loading ledger entries: %v", err)
		response.WriteInternalError(w, "Failed to load stats")
		return
	}

	response.WriteSuccess(w, "", map[string]interface{}{
		"articles":  stats,
		"processed": len(entries),
	})
}
