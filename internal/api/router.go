package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"jamesfarrell.me/youtube-summary/internal/api/handlers"
	"jamesfarrell.me/youtube-summary/internal/api/middleware"
)

func NewRouter(svc handlers.VideoService, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))

	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	details := handlers.NewDetailsHandler(svc, logger)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/get-video-details", details.Status).Methods(http.MethodGet)
	api.HandleFunc("/get-video-details", details.GetDetails).Methods(http.MethodPost)
	api.HandleFunc("/get-video-details", details.Options).Methods(http.MethodOptions)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
