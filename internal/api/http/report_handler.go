package http

import (
	"fmt"
	"net/http"
	"strconv"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"
)

type ReportHandler struct {
	reports service.ReportService
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	summary, err := h.reports.Summary(r.Context(), s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive number", domain.ErrValidation))
			return
		}
		limit = n
	}
	ranking, err := h.reports.Ranking(r.Context(), s, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ranking": ranking})
}
