package http

import (
	"net/http"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

type EvaluationHandler struct {
	evals service.EvaluationService
}

type evaluateRequest struct {
	UserID string `json:"user_id"`
	domain.Scores
	Presence bool   `json:"presence"`
	Notes    string `json:"notes"`
}

type performanceRequest struct {
	domain.Scores
	Notes string `json:"notes"`
}

func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req evaluateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	eval, err := h.evals.Evaluate(r.Context(), s, mux.Vars(r)["id"], req.UserID, req.Scores, req.Presence, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eval)
}

func (h *EvaluationHandler) UpdatePerformance(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req performanceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	eval, err := h.evals.UpdatePerformance(r.Context(), s, mux.Vars(r)["id"], req.Scores, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eval)
}

func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	evals, err := h.evals.ListEvaluations(r.Context(), s, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": evals})
}
