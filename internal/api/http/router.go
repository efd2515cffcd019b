package http

import (
	"net/http"

	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/security"
	"eventstaff-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Events        service.EventService
	Applications  service.ApplicationService
	Evaluations   service.EvaluationService
	Notifications service.NotificationService
	Reports       service.ReportService
	Sync          service.SyncService
}

// RouterConfig wires the router.
type RouterConfig struct {
	Services Services
	Tokens   security.TokenManager
	Pending  PendingCounter
	Backend  service.Pinger
	Metrics  *metrics.Manager
}

func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware(cfg.Metrics))
	r.Use(CORSMiddleware)

	svc := cfg.Services
	auth := &AuthHandler{auth: svc.Auth}
	me := &UserHandler{users: svc.Users, apps: svc.Applications}
	events := &EventHandler{events: svc.Events}
	apps := &ApplicationHandler{apps: svc.Applications}
	evals := &EvaluationHandler{evals: svc.Evaluations}
	notes := &NotificationHandler{notes: svc.Notifications}
	reports := &ReportHandler{reports: svc.Reports}
	system := &SystemHandler{backend: cfg.Backend, sync: svc.Sync}

	// Open endpoints
	r.HandleFunc("/health", system.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(SyncPendingMiddleware(cfg.Pending))
	api.Use(AuthMiddleware(cfg.Tokens))

	api.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost).Name("Register")
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost).Name("Login")

	api.HandleFunc("/me", me.GetMe).Methods(http.MethodGet).Name("GetMe")
	api.HandleFunc("/me", me.UpdateMe).Methods(http.MethodPut).Name("UpdateMe")
	api.HandleFunc("/me/jobs", me.ListMyJobs).Methods(http.MethodGet).Name("ListMyJobs")

	api.HandleFunc("/events", events.List).Methods(http.MethodGet).Name("ListEvents")
	api.HandleFunc("/events", events.Create).Methods(http.MethodPost).Name("CreateEvent")
	api.HandleFunc("/events/{id}", events.Get).Methods(http.MethodGet).Name("GetEvent")
	api.HandleFunc("/events/{id}", events.Update).Methods(http.MethodPut).Name("UpdateEvent")
	api.HandleFunc("/events/{id}/status", events.SetStatus).Methods(http.MethodPut).Name("SetEventStatus")
	api.HandleFunc("/events/{id}/status/advance", events.AdvanceStatus).Methods(http.MethodPost).Name("AdvanceEventStatus")

	api.HandleFunc("/events/{id}/applications", apps.Submit).Methods(http.MethodPost).Name("SubmitApplication")
	api.HandleFunc("/applications", apps.List).Methods(http.MethodGet).Name("ListApplications")
	api.HandleFunc("/applications/{id}/status", apps.SetStatus).Methods(http.MethodPut).Name("SetApplicationStatus")
	api.HandleFunc("/applications/{id}/cancel", apps.Cancel).Methods(http.MethodPost).Name("CancelApplication")

	api.HandleFunc("/events/{id}/evaluations", evals.Evaluate).Methods(http.MethodPost).Name("EvaluateStaff")
	api.HandleFunc("/users/{id}/performance", evals.UpdatePerformance).Methods(http.MethodPost).Name("UpdatePerformance")
	api.HandleFunc("/users/{id}/evaluations", evals.List).Methods(http.MethodGet).Name("ListEvaluations")

	api.HandleFunc("/users", me.ListStaff).Methods(http.MethodGet).Name("ListUsers")
	api.HandleFunc("/users/{id}", me.Delete).Methods(http.MethodDelete).Name("DeleteUser")

	api.HandleFunc("/notifications", notes.List).Methods(http.MethodGet).Name("ListNotifications")
	api.HandleFunc("/notifications/{id}/read", notes.MarkAsRead).Methods(http.MethodPut).Name("MarkNotificationRead")

	api.HandleFunc("/reports/summary", reports.Summary).Methods(http.MethodGet).Name("ReportSummary")
	api.HandleFunc("/reports/ranking", reports.Ranking).Methods(http.MethodGet).Name("ReportRanking")

	api.HandleFunc("/sync/status", system.SyncStatus).Methods(http.MethodGet).Name("SyncStatus")

	return r
}
