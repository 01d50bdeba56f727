package routes

import (
	"net/http"

	"pongo_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/welcome", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
}

// RegisterMetricsRoutes exposes the Prometheus registry at /metrics
func RegisterMetricsRoutes(r *mux.Router, metrics http.Handler) {
	r.Handle("/metrics", metrics).Methods("GET")
}

// RegisterSocketRoutes mounts the Socket.IO server under /socket.io/
func RegisterSocketRoutes(r *mux.Router, io http.Handler) {
	r.PathPrefix("/socket.io/").Handler(io)
}
