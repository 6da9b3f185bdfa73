package handlers

import (
	"net/http"

	"github.com/rupaya-app/rupaya/internal/middleware"
	"github.com/rupaya-app/rupaya/internal/service"
)

// SummaryHandler exposes the balance dashboard endpoint.
type SummaryHandler struct {
	summary *service.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summary *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summary: summary}
}

// Get handles GET /api/summary; an optional group_id query parameter scopes
// the totals to one group.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	summary, err := h.summary.GetSummary(r.Context(), middleware.UserID(r.Context()), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
