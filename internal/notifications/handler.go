// internal/notifications/handler.go
package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventradar/internal/events"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the notification endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/events/{eventID}", h.handleDispatch)
	r.Post("/upcoming", h.handleScanUpcoming)
	return r
}

func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	// A malformed delay falls back to immediate dispatch rather than
	// failing the request.
	delay, _ := strconv.Atoi(r.URL.Query().Get("delay"))
	if delay < 0 {
		delay = 0
	}

	result, err := h.service.Dispatch(r.Context(), eventID, delay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleScanUpcoming(w http.ResponseWriter, r *http.Request) {
	daysAhead, _ := strconv.Atoi(r.URL.Query().Get("daysAhead"))
	if daysAhead < 1 {
		daysAhead = 1
	}

	result, err := h.service.ScanAndQueue(r.Context(), daysAhead)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, err.Error())
	default:
		writeMessage(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
