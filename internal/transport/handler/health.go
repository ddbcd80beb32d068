package handler

import (
	"net/http"

	"newsbrief/internal/transport/response"
)

// Health is the liveness endpoint
type Health struct{}

func NewHealth() *Health {
	return &Health{}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.Response{Status: "ok"})
}
