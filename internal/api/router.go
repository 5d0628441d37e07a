package api

import (
	"net/http"

	"dispatch-nav-service/internal/api/handlers"
	"dispatch-nav-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(navigator *services.Navigator) http.Handler {
	mux := http.NewServeMux()

	sessionHandler := &handlers.SessionHandler{Navigator: navigator}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("POST /sessions", sessionHandler.Create)
	mux.HandleFunc("GET /sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("PUT /sessions/{id}/waypoints", sessionHandler.Update)
	mux.HandleFunc("POST /sessions/{id}/start", sessionHandler.Start)
	mux.HandleFunc("POST /sessions/{id}/stop", sessionHandler.Stop)
	mux.HandleFunc("POST /sessions/{id}/continue", sessionHandler.Continue)
	mux.HandleFunc("POST /sessions/{id}/position", sessionHandler.Position)
	mux.HandleFunc("POST /sessions/{id}/recenter", sessionHandler.Recenter)
	mux.HandleFunc("POST /sessions/{id}/interaction", sessionHandler.Interaction)
	mux.HandleFunc("POST /sessions/{id}/offline", sessionHandler.Offline)

	return loggingMiddleware(mux)
}
