package httpapi

import (
	"net/http"

	"leadflow/auth"
	"leadflow/leadqueue"
	"leadflow/schedule"
	"leadflow/sheetcfg"
)

// Services bundles the collaborators the router wires handlers to.
type Services struct {
	Auth     *auth.Service
	Config   *sheetcfg.Service
	Queue    *leadqueue.Queue
	Writer   *leadqueue.Writer
	Schedule *schedule.Service
}

// NewRouter builds the full API surface.
func NewRouter(s Services) http.Handler {
	mux := http.NewServeMux()

	authn := NewAuthenticator(s.Auth)
	authHandler := NewAuthHandler(s.Auth)
	configHandler := NewConfigHandler(s.Config)
	leadHandler := NewLeadHandler(s.Queue, s.Writer)
	scheduleHandler := NewScheduleHandler(s.Schedule, s.Auth)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	mux.HandleFunc("POST /api/login", WithLogging(authHandler.Login))
	mux.HandleFunc("POST /api/token/refresh", WithLogging(authHandler.Refresh))
	mux.HandleFunc("POST /api/reset-password", WithLogging(authHandler.ResetPassword))

	// Users (admin)
	mux.HandleFunc("GET /api/users", WithLogging(authn.RequireAdmin(authHandler.ListUsers)))
	mux.HandleFunc("POST /api/users", WithLogging(authn.RequireAdmin(authHandler.CreateUser)))
	mux.HandleFunc("PUT /api/users/{id}", WithLogging(authn.RequireAdmin(authHandler.UpdateUser)))

	// Sheet configuration (admin)
	mux.HandleFunc("GET /api/sheet-config", WithLogging(authn.RequireAdmin(configHandler.Get)))
	mux.HandleFunc("POST /api/sheet-config", WithLogging(authn.RequireAdmin(configHandler.Set)))

	// Lead queue
	mux.HandleFunc("GET /api/leads/queue", WithLogging(authn.Require(leadHandler.NextLead)))
	mux.HandleFunc("POST /api/leads/disposition", WithLogging(authn.Require(leadHandler.Disposition)))

	// Availability (admin)
	mux.HandleFunc("GET /api/availability", WithLogging(authn.RequireAdmin(scheduleHandler.ListSlots)))
	mux.HandleFunc("POST /api/availability", WithLogging(authn.RequireAdmin(scheduleHandler.CreateSlot)))

	// Appointments
	mux.HandleFunc("GET /api/appointments", WithLogging(authn.Require(scheduleHandler.ListAppointments)))
	mux.HandleFunc("POST /api/appointments", WithLogging(authn.Require(scheduleHandler.CreateAppointment)))
	mux.HandleFunc("PUT /api/appointments/{id}", WithLogging(authn.Require(scheduleHandler.UpdateAppointment)))

	return CORS(mux)
}
