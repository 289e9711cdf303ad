// Package httphandler is the REST driving adapter for the letter board.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/whisperedthoughts/internal/application"
	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

// Short error labels of the failure envelope.
const (
	labelCreateFailed = "Failed to create thought"
	labelListFailed   = "Failed to fetch thoughts"
	labelUpdateFailed = "Failed to update thought"
	labelDeleteFailed = "Failed to delete thought"
	labelNotFound     = "Thought not found"
	labelBadPassword  = "Invalid password"
	labelUnavailable  = "Service unavailable"
	labelInternal     = "Internal server error"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// thoughtRoutePrefixes are the collection paths the thought routes are served
// under. /api/thoughts is what the original web client calls.
var thoughtRoutePrefixes = []string{"/thoughts", "/api/thoughts"}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	thoughts      *application.ThoughtService
	allowedOrigin string
	logger        *slog.Logger
}

// NewHandler creates a Handler. allowedOrigin is sent as
// Access-Control-Allow-Origin on thought routes; empty means "*".
func NewHandler(thoughts *application.ThoughtService, allowedOrigin string, logger *slog.Logger) *Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Handler{
		thoughts:      thoughts,
		allowedOrigin: allowedOrigin,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-ID, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	preflight := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, base := range thoughtRoutePrefixes {
		mux.Handle("POST "+base, corsMiddleware(h.allowedOrigin, http.HandlerFunc(h.CreateThought)))
		mux.Handle("GET "+base, corsMiddleware(h.allowedOrigin, http.HandlerFunc(h.ListThoughts)))
		mux.Handle("DELETE "+base, corsMiddleware(h.allowedOrigin, http.HandlerFunc(h.DeleteThought)))
		mux.Handle("OPTIONS "+base, corsMiddleware(h.allowedOrigin, preflight))
		mux.Handle("PUT "+base+"/{id}", corsMiddleware(h.allowedOrigin, http.HandlerFunc(h.UpdateThought)))
		mux.Handle("OPTIONS "+base+"/{id}", corsMiddleware(h.allowedOrigin, preflight))
	}
	mux.HandleFunc("GET /health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// CreateThought stores a new thought from a JSON body.
func (h *Handler) CreateThought(w http.ResponseWriter, r *http.Request) {
	var req CreateThoughtRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, labelCreateFailed, "Invalid request body")
		return
	}

	res, err := h.thoughts.Create(r.Context(), application.CreateThoughtInput{
		Receiver: req.Receiver,
		Content:  req.Content,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, labelCreateFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{
		Success: true,
		Message: "Thought created successfully",
		Result:  toInsertResultResponse(res),
	})
}

// ListThoughts returns all thoughts, most recent first. Responses are never cacheable.
func (h *Handler) ListThoughts(w http.ResponseWriter, r *http.Request) {
	setNoCache(w)

	thoughts, err := h.thoughts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, labelListFailed, err)
		return
	}

	resp := make([]ThoughtResponse, 0, len(thoughts))
	for _, t := range thoughts {
		resp = append(resp, toThoughtResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateThought replaces the content of the thought named by the {id} path value.
func (h *Handler) UpdateThought(w http.ResponseWriter, r *http.Request) {
	// A malformed id becomes 0, which the service rejects as invalid input.
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	var req UpdateThoughtRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, labelUpdateFailed, "Invalid request body")
		return
	}

	err := h.thoughts.Update(r.Context(), id, application.UpdateThoughtInput{
		Content:  req.Content,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, labelUpdateFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{
		Success: true,
		Message: "Thought updated successfully",
	})
}

// DeleteThought removes the thought named by the id query parameter when the
// password query parameter authorizes it.
func (h *Handler) DeleteThought(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawID := query.Get("id")
	password := query.Get("password")

	if rawID == "" || password == "" {
		writeError(w, http.StatusBadRequest, labelDeleteFailed, application.MsgDeleteParamsMissing)
		return
	}

	id, _ := strconv.ParseInt(rawID, 10, 64)

	if err := h.thoughts.Delete(r.Context(), id, password); err != nil {
		h.writeServiceError(w, r, labelDeleteFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, AckResponse{
		Success: true,
		Message: "Thought deleted successfully",
	})
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.thoughts.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, labelUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps a ThoughtService error onto a status code and
// failure envelope. label names the failed operation.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, label string, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, label, ve.Message)
	case errors.Is(err, model.ErrThoughtNotFound):
		writeError(w, http.StatusNotFound, labelNotFound, "No thought exists with the given ID")
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, labelBadPassword, "The password does not match this thought")
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, label, "Invalid password")
	case errors.Is(err, driven.ErrStoreUnavailable):
		h.logger.Warn("store unavailable", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusServiceUnavailable, labelUnavailable, "Timed out waiting for a database connection")
	default:
		h.logger.Error(label, "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, label, internalDetails(err))
	}
}

// internalDetails returns the underlying failure message, or a generic
// fallback when there is none.
func internalDetails(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	return err.Error()
}

// decodeBody decodes a size-limited JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
