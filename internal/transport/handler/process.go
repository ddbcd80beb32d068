package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"

	"newsbrief/internal/pipeline"
	"newsbrief/internal/transport/response"
)

// Runner executes one ingestion pass
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Stats, error)
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Process triggers ingestion runs over HTTP
type Process struct {
	runner Runner
}

func NewProcess(runner Runner) *Process {
	return &Process{runner: runner}
}

type processRequest struct {
	Query    string `json:"query,omitempty"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

func (h *Process) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteBadRequest(w, "Invalid request body")
			return
		}
	}

	if req.FromDate != "" && !dateRe.MatchString(req.FromDate) {
		response.WriteBadRequest(w, "from_date must be YYYY-MM-DD")
		return
	}
	if req.ToDate != "" && !dateRe.MatchString(req.ToDate) {
		response.WriteBadRequest(w, "to_date must be YYYY-MM-DD")
		return
	}

	stats, err := h.runner.Run(r.Context(), pipeline.Options{
		Query:    req.Query,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	})
	if err != nil {
		log.Printf("Ingestion run failed: %v", err)
		response.WriteInternalError(w, "Ingestion run failed")
		return
	}

	response.WriteSuccess(w, "Ingestion completed", stats)
}
