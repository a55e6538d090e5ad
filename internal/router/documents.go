package router

import (
	"net/http"

	"github.com/godfrey-tankan/document-insight-view/internal/handlers"
	"github.com/godfrey-tankan/document-insight-view/internal/middleware"
	"github.com/godfrey-tankan/document-insight-view/internal/services"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"

	"github.com/gorilla/mux"
)

type Options struct {
	MaxFileSize    int64
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(service services.AnalysisService, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(service, opts.MaxFileSize, logger)
	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Analysis is the expensive endpoint, so only it is rate limited
	api.Handle("/documents/analyze", limiter.Limit(http.HandlerFunc(docHandler.AnalyzeDocument))).
		Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/documents/{id}/highlighted", docHandler.GetHighlighted).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)

	return r
}
