package http

import (
	"net/http"

	"eventstaff-backend/internal/service"
)

type SystemHandler struct {
	backend service.Pinger
	sync    service.SyncService
}

// Health answers 200 while the process runs. A down backend is reported as
// degraded since writes are still accepted locally.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.backend != nil {
		if err := h.backend.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *SystemHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.sync.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
