package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"newsbrief/internal/ledger"
	"newsbrief/internal/store"
	"newsbrief/internal/transport/response"
)

// Articles serves the article admin endpoints
type Articles struct {
	store  store.Store
	ledger ledger.Ledger
}

func NewArticles(st store.Store, led ledger.Ledger) *Articles {
	return &Articles{store: st, ledger: led}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// List handles GET /api/articles with optional q, page, page_size and
// include_hidden parameters.
func (h *Articles) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if q := r.URL.Query().Get("q"); q != "" {
		articles, err := h.store.Search(ctx, q)
		if err != nil {
			log.Printf("Error searching articles: %v", err)
			response.WriteInternalError(w, "Failed to search articles")
			return
		}
		response.WriteSuccess(w, "", response.Page{
			Items:    articles,
			Total:    len(articles),
			Page:     1,
			PageSize: len(articles),
		})
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	list := h.store.ListPublished
	if r.URL.Query().Get("include_hidden") == "true" {
		list = h.store.ListAll
	}

	articles, total, err := list(ctx, page, pageSize)
	if err != nil {
		log.Printf("Error listing articles: %v", err)
		response.WriteInternalError(w, "Failed to list articles")
		return
	}

	if articles == nil {
		articles = []store.Article{}
	}
	response.WriteSuccess(w, "", response.Page{
		Items:    articles,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Get handles GET /api/articles/{slug}
func (h *Articles) Get(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	article, err := h.store.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.WriteNotFound(w, "Article not found")
			return
		}
		log.Printf("Error loading article %s: %v", slug, err)
		response.WriteInternalError(w, "Failed to load article")
		return
	}

	response.WriteSuccess(w, "", article)
}

type visibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// SetVisibility handles POST /api/articles/{slug}/visibility
func (h *Articles) SetVisibility(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.store.SetVisibility(r.Context(), slug, req.Hidden); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.WriteNotFound(w, "Article not found")
			return
		}
		log.Printf("Error updating visibility for %s: %v", slug, err)
		response.WriteInternalError(w, "Failed to update visibility")
		return
	}

	message := "Article restored"
	if req.Hidden {
		message = "Article hidden"
	}
	response.WriteSuccess(w, message, nil)
}

// Delete handles DELETE /api/articles/{slug}. The article is removed
// permanently and its dedup entry released so the next ingestion run
// can pick it up again.
func (h *Articles) Delete(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	ctx := r.Context()

	guardianID, err := h.store.HardDelete(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.WriteNotFound(w, "Article not found")
			return
		}
		log.Printf("Error deleting article %s: %v", slug, err)
		response.WriteInternalError(w, "Failed to delete article")
		return
	}

	released, err := h.ledger.Unmark(ctx, guardianID)
	if err != nil {
		// The article is gone; report success but note the stale mark
		log.Printf("Error releasing ledger entry %s: %v", guardianID, err)
	}

	response.WriteSuccess(w, "Article deleted", map[string]interface{}{
		"guardian_id":    guardianID,
		"entry_released": released,
	})
}
