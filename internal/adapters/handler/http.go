package handler

import (
	"agribot/internal/core/domain"
	"agribot/internal/core/port"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type RequestObserver interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
	AddCost(cost float64)
}

type HTTP struct {
	chat    port.ChatResponder
	stats   port.StatsResponder
	clear   port.ClearResponder
	models  port.ModelsResponder
	metrics RequestObserver
	expose  http.Handler
	maxBody int64
}

type HTTPParams struct {
	Chat    port.ChatResponder
	Stats   port.StatsResponder
	Clear   port.ClearResponder
	Models  port.ModelsResponder
	Metrics RequestObserver

	// Expose serves /metrics when set.
	Expose http.Handler

	// MaxBodyBytes caps the chat request body, images included. Defaults to 10 MiB.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 10 << 20

func NewHTTP(p HTTPParams) *HTTP {
	if p.MaxBodyBytes <= 0 {
		p.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &HTTP{
		chat:    p.Chat,
		stats:   p.Stats,
		clear:   p.Clear,
		models:  p.Models,
		metrics: p.Metrics,
		expose:  p.Expose,
		maxBody: p.MaxBodyBytes,
	}
}

// Router wires the API routes behind request-id, logging and CORS middleware.
func (h *HTTP) Router(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(labelRoute)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", h.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/clear-history", h.handleClearHistory).Methods(http.MethodPost)
	api.HandleFunc("/models", h.handleModels).Methods(http.MethodGet)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	if h.expose != nil {
		r.Handle("/metrics", h.expose).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	})

	return requestID(h.instrument(c.Handler(r)))
}

func (h *HTTP) handleChat(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn().Int64("limit", tooLarge.Limit).Msg("chat body too large")
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
			return
		}

		l.Debug().Err(err).Msg("invalid chat body")
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.chat.Respond(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "empty_query", "Empty query")
			return
		}

		l.Error().Err(err).Msg("chat failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if h.metrics != nil && resp.Cost != nil {
		h.metrics.AddCost(*resp.Cost)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTP) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Respond(r.Context()))
}

func (h *HTTP) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	h.clear.Respond(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *HTTP) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.ModelStatus{"models": h.models.Respond(r.Context())})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]domain.HTTPError{"error": {Code: code, Message: message}})
}
