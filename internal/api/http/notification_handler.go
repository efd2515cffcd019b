package http

import (
	"fmt"
	"net/http"
	"time"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	notes service.NotificationService
}

// List accepts an optional RFC 3339 "since" query parameter for polling.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: since must be RFC 3339", domain.ErrValidation))
			return
		}
		since = t
	}
	notes, err := h.notes.ListNotifications(r.Context(), s, since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := h.notes.MarkAsRead(r.Context(), s, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
