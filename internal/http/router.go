package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lotto-backend/internal/handlers"
	"lotto-backend/internal/middleware"
)

func NewRouter(
	gameHandler *handlers.GameHandler,
	boxHandler *handlers.BoxHandler,
	packHandler *handlers.PackHandler,
	readingHandler *handlers.ReadingHandler,
	anomalyHandler *handlers.AnomalyHandler,
	dayCloseHandler *handlers.DayCloseHandler,
	postingHandler *handlers.PostingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Protected API routes - Games (admin manages the catalogue)
	gamesAPI := r.PathPrefix("/api/games").Subrouter()
	gamesAPI.Use(authMiddleware.Authenticate)
	gamesAPI.HandleFunc("", gameHandler.List).Methods("GET")
	gamesAPI.HandleFunc("", authMiddleware.RequireAdmin(http.HandlerFunc(gameHandler.Create)).ServeHTTP).Methods("POST")
	gamesAPI.HandleFunc("/{id}", gameHandler.Get).Methods("GET")

	// Protected API routes - Boxes
	boxesAPI := r.PathPrefix("/api/boxes").Subrouter()
	boxesAPI.Use(authMiddleware.Authenticate)
	boxesAPI.HandleFunc("", boxHandler.List).Methods("GET")
	boxesAPI.HandleFunc("", authMiddleware.RequireAdmin(http.HandlerFunc(boxHandler.Create)).ServeHTTP).Methods("POST")
	boxesAPI.HandleFunc("/{id}", boxHandler.Get).Methods("GET")

	// Protected API routes - Packs (any clerk can receive and assign)
	packsAPI := r.PathPrefix("/api/packs").Subrouter()
	packsAPI.Use(authMiddleware.Authenticate)
	packsAPI.HandleFunc("", packHandler.List).Methods("GET")
	packsAPI.HandleFunc("", packHandler.Create).Methods("POST")
	packsAPI.HandleFunc("/{id}", packHandler.Get).Methods("GET")
	packsAPI.HandleFunc("/{id}/assign", packHandler.Assign).Methods("PUT")
	packsAPI.HandleFunc("/{id}/return", packHandler.Return).Methods("PUT")
	packsAPI.HandleFunc("/{id}/readings", readingHandler.ListByPack).Methods("GET")

	// Protected API routes - Readings
	readingsAPI := r.PathPrefix("/api/readings").Subrouter()
	readingsAPI.Use(authMiddleware.Authenticate)
	readingsAPI.HandleFunc("", readingHandler.Record).Methods("POST")

	// Protected API routes - Anomalies (closing requires the ledger side)
	anomaliesAPI := r.PathPrefix("/api/anomalies").Subrouter()
	anomaliesAPI.Use(authMiddleware.Authenticate)
	anomaliesAPI.HandleFunc("", anomalyHandler.List).Methods("GET")
	anomaliesAPI.HandleFunc("/{id}", anomalyHandler.Get).Methods("GET")
	anomaliesAPI.HandleFunc("/{id}/acknowledge", authMiddleware.RequireAccountant(http.HandlerFunc(anomalyHandler.Acknowledge)).ServeHTTP).Methods("PUT")
	anomaliesAPI.HandleFunc("/{id}/resolve", authMiddleware.RequireAccountant(http.HandlerFunc(anomalyHandler.Resolve)).ServeHTTP).Methods("PUT")

	// Protected API routes - Draw days (accountants only)
	drawDaysAPI := r.PathPrefix("/api/draw-days").Subrouter()
	drawDaysAPI.Use(authMiddleware.Authenticate)
	drawDaysAPI.HandleFunc("", dayCloseHandler.GetDrawDay).Methods("GET")
	drawDaysAPI.HandleFunc("", authMiddleware.RequireAccountant(http.HandlerFunc(dayCloseHandler.UpsertDrawDay)).ServeHTTP).Methods("PUT")

	// Protected API routes - Day close
	dayCloseAPI := r.PathPrefix("/api/day-close").Subrouter()
	dayCloseAPI.Use(authMiddleware.Authenticate)
	dayCloseAPI.HandleFunc("", dayCloseHandler.Preview).Methods("GET")
	dayCloseAPI.HandleFunc("/flag-missing", authMiddleware.RequireAccountant(http.HandlerFunc(dayCloseHandler.FlagMissing)).ServeHTTP).Methods("POST")
	dayCloseAPI.HandleFunc("/post", authMiddleware.RequireAccountant(http.HandlerFunc(postingHandler.Post)).ServeHTTP).Methods("POST")

	// Protected API routes - Posting history
	postingsAPI := r.PathPrefix("/api/postings").Subrouter()
	postingsAPI.Use(authMiddleware.Authenticate)
	postingsAPI.HandleFunc("", postingHandler.Get).Methods("GET")
	postingsAPI.HandleFunc("/history", postingHandler.History).Methods("GET")

	// Health endpoint (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
