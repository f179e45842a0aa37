// Package api serves the HTTP ingest surface: notifications are posted one
// at a time and applied synchronously through the host.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gluesync/internal/event"
	"gluesync/internal/middleware"
)

// DefaultMaxBodyBytes bounds a single notification body. Add-partition
// events with thousands of partitions stay well below it.
const DefaultMaxBodyBytes = 32 << 20

// Submitter accepts decoded events and blocks until they are applied.
type Submitter interface {
	Submit(ctx context.Context, ev event.Event) error
}

// Deps holds the dependencies of the ingest router.
type Deps struct {
	Submitter    Submitter
	Metrics      http.Handler // served on /metrics when set
	RateLimit    middleware.RateLimitConfig
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type handler struct {
	sub          Submitter
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewRouter builds the chi router for the ingest surface.
func NewRouter(deps Deps) http.Handler {
	h := &handler{
		sub:          deps.Submitter,
		maxBodyBytes: deps.MaxBodyBytes,
		logger:       deps.Logger,
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.healthz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimiter(deps.RateLimit))
		r.Post("/v1/events", h.postEvent)
	})
	return r
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type eventResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

func (h *handler) postEvent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "notification body too large",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Code: http.StatusBadRequest, Message: "read body: " + err.Error()})
		return
	}

	ev, err := event.Decode(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBodyFrom(err, ""))
		return
	}

	if err := h.sub.Submit(r.Context(), ev); err != nil {
		body := errorBodyFrom(err, ev.ID)
		if body.Code >= http.StatusInternalServerError {
			h.logger.Debug("notification not applied",
				"event_id", ev.ID,
				"request_id", middleware.RequestIDFromContext(r.Context()),
				"status", body.Code,
				"error", err,
			)
		}
		writeJSON(w, body.Code, body)
		return
	}

	writeJSON(w, http.StatusOK, eventResponse{EventID: ev.ID, Status: "applied"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
