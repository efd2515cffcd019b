package http

import (
	"net/http"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

type EventHandler struct {
	events service.EventService
}

type eventStatusRequest struct {
	Status domain.EventStatus `json:"status"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.EventFilter{Status: domain.EventStatus(r.URL.Query().Get("status"))}
	events, err := h.events.ListEvents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var event domain.Event
	if err := decode(r, &event); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.events.CreateEvent(r.Context(), s, &event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var event domain.Event
	if err := decode(r, &event); err != nil {
		writeError(w, err)
		return
	}
	event.ID = mux.Vars(r)["id"]
	updated, err := h.events.UpdateEvent(r.Context(), s, &event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var req eventStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.SetEventStatus(r.Context(), s, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	event, err := h.events.AdvanceEventStatus(r.Context(), s, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
