package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"newsbrief/internal/store"
	"newsbrief/internal/summarizer"
	"newsbrief/internal/transport/response"
)

// MergeSuggester proposes category consolidations
type MergeSuggester interface {
	SuggestCategoryMerges(ctx context.Context, categories []summarizer.CategoryCount) ([]summarizer.MergeSuggestion, error)
}

// Categories serves the category admin endpoints
type Categories struct {
	store     store.Store
	suggester MergeSuggester
}

func NewCategories(st store.Store, suggester MergeSuggester) *Categories {
	return &Categories{store: st, suggester: suggester}
}

// List handles GET /api/categories
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		response.WriteInternalError(w, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []store.CategoryCount{}
	}
	response.WriteSuccess(w, "", categories)
}

// Suggest handles POST /api/categories/suggest: the current category
// census is sent to the model, which proposes merges for near-duplicate
// names. Nothing is changed until the merge endpoint is called.
func (h *Categories) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		response.WriteInternalError(w, "Failed to list categories")
		return
	}
	if len(categories) < 2 {
		response.WriteSuccess(w, "Not enough categories to suggest merges", []summarizer.MergeSuggestion{})
		return
	}

	census := make([]summarizer.CategoryCount, len(categories))
	for i, c := range categories {
		census[i] = summarizer.CategoryCount{Name: c.Name, Count: c.Count}
	}

	suggestions, err := h.suggester.SuggestCategoryMerges(ctx, census)
	if err != nil {
		log.Printf("Error suggesting category merges: %v", err)
		response.WriteInternalError(w, "Failed to suggest merges")
		return
	}
	if suggestions == nil {
		suggestions = []summarizer.MergeSuggestion{}
	}

	response.WriteSuccess(w, "", suggestions)
}

type mergeRequest struct {
	From []string `json:"from"`
	To   string   `json:"to"`
}

// Merge handles POST /api/categories/merge, renaming every article in
// the from categories to the target name.
func (h *Categories) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.To = strings.TrimSpace(req.To)
	if req.To == "" || len(req.From) == 0 {
		response.WriteBadRequest(w, "Both from and to are required")
		return
	}

	ctx := r.Context()
	affected := make(map[string]int, len(req.From))
	total := 0
	for _, from := range req.From {
		// Casing-only merges still run so labels converge on the
		// normalized form; only an exact self-merge is a no-op.
		if from == req.To {
			continue
		}
		count, err := h.store.RenameCategory(ctx, from, req.To)
		if err != nil {
			log.Printf("Error merging category %q into %q: %v", from, req.To, err)
			response.WriteJSON(w, http.StatusInternalServerError, response.Response{
				Status: "error",
				Error:  "Merge failed partway; some categories may already be renamed",
				Data: map[string]interface{}{
					"to":       req.To,
					"affected": affected,
					"total":    total,
				},
			})
			return
		}
		affected[from] = count
		total += count
	}

	response.WriteSuccess(w, "Categories merged", map[string]interface{}{
		"to":       req.To,
		"affected": affected,
		"total":    total,
	})
}
