package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// RouteRegistrar adds extra routes, such as the admin surface.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// NewRouter assembles the public routes plus any extra registrars, wrapped in
// a CORS policy that allows every origin, method and header.
func NewRouter(h *Handler, extra ...RouteRegistrar) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestID, Observe)

	// Public routes
	router.HandleFunc("/", h.Health).Methods("GET")
	router.HandleFunc("/analyze", h.Analyze).Methods("POST")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	for _, r := range extra {
		r.RegisterRoutes(router)
	}

	return cors.AllowAll().Handler(router)
}
