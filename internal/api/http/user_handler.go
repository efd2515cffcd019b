package http

import (
	"net/http"

	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/service"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	users service.UserService
	apps  service.ApplicationService
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	profile, err := h.users.GetProfile(r.Context(), s.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	var update domain.ProfileUpdate
	if err := decode(r, &update); err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.users.UpdateProfile(r.Context(), s.UserID, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	jobs, err := h.apps.ListMyJobs(r.Context(), s.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *UserHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	users, err := h.users.ListStaff(r.Context(), s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := h.users.DeleteUser(r.Context(), s, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
