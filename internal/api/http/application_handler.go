package http

import (
	"net/http"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

type ApplicationHandler struct {
	apps service.ApplicationService
}

type submitRequest struct {
	FunctionID string `json:"function_id"`
}

type applicationStatusRequest struct {
	Status domain.ApplicationStatus `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.apps.Submit(r.Context(), s, mux.Vars(r)["id"], req.FunctionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// List returns every matching application to admins and only their own to
// staff.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	q := r.URL.Query()
	filter := domain.ApplicationFilter{
		EventID:    q.Get("event_id"),
		UserID:     q.Get("user_id"),
		FunctionID: q.Get("function_id"),
		Status:     domain.ApplicationStatus(q.Get("status")),
	}
	if !s.IsAdmin() {
		filter.UserID = s.UserID
	}
	apps, err := h.apps.ListApplications(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req applicationStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.apps.SetStatus(r.Context(), s, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.apps.Cancel(r.Context(), s, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
