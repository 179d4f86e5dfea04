// Package server exposes the mortgage comparison session API over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/results"
	"github.com/iwvelando/mortgage-simulator/internal/session"
	"github.com/iwvelando/mortgage-simulator/internal/simulation"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Options configures the HTTP handler.
type Options struct {
	MaxBodySize    int64
	Version        string
	AllowedOrigins []string
	Locale         language.Tag
	Codecs         conditions.Codecs
}

type handler struct {
	logger      *zap.Logger
	sessions    *session.Manager
	maxBodySize int64
	version     string
	locale      language.Tag
	codecs      conditions.Codecs
}

// NewHandler constructs the HTTP handler that serves the session API.
func NewHandler(logger *zap.Logger, sessions *session.Manager, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{
		logger:      logger,
		sessions:    sessions,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		locale:      opts.Locale,
		codecs:      opts.Codecs,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Location"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/metrics", h.handleMetrics)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Delete("/", h.handleDeleteSession)

				r.Put("/general/{field}", h.handleUpdateGeneralField)

				r.Post("/conditions", h.handleAddCondition)
				r.Delete("/conditions/{index}", h.handleRemoveCondition)
				r.Put("/conditions/{index}/{field}", h.handleUpdateConditionField)

				r.Put("/metric", h.handleSelectMetric)
				r.Post("/simulate", h.handleSimulate)
				r.Get("/results", h.handleResults)

				r.Get("/export", h.handleExport)
				r.Post("/import", h.handleImport)
			})
		})
	})

	return r
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type metricView struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default,omitempty"`
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	out := make([]metricView, 0, len(results.Metrics))
	for _, m := range results.Metrics {
		out = append(out, metricView{Name: string(m), Label: m.Label(), Default: m == results.DefaultMetric})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// requestLogger writes one zap line per request.
func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.Debug("request served",
			zap.String("op", "server.request"),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, conditions.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, mortgage.ErrUnknownField),
		errors.Is(err, results.ErrUnknownMetric),
		errors.Is(err, conditions.ErrOutOfRange),
		errors.Is(err, session.ErrNoConditions):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSimulationInFlight):
		return http.StatusConflict
	case errors.Is(err, simulation.ErrSimulationFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		log := h.logger.Warn
		if status >= http.StatusInternalServerError {
			log = h.logger.Error
		}
		log("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
