// internal/events/handler.go
package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

type Handler struct {
	service         Service
	validate        *validator.Validate
	defaultRadiusKm float64
}

func NewHandler(service Service, defaultRadiusKm float64) *Handler {
	return &Handler{
		service:         service,
		validate:        validator.New(),
		defaultRadiusKm: defaultRadiusKm,
	}
}

// Routes mounts the event endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/search/location", h.handleSearchByLocation)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	return r
}

type locationRequest struct {
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" validate:"required"`
}

type createEventRequest struct {
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	Location     locationRequest `json:"location" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	EndDate      *time.Time      `json:"end_date"`
	Categories   []string        `json:"categories" validate:"required,min=1"`
	MaxAttendees *int            `json:"max_attendees"`
}

type updateEventRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Location     *locationRequest `json:"location"`
	Date         *time.Time       `json:"date"`
	EndDate      *time.Time       `json:"end_date"`
	Categories   []string         `json:"categories"`
	MaxAttendees *int             `json:"max_attendees"`
	Status       *string          `json:"status"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := &Event{
		Title:       req.Title,
		Description: req.Description,
		Location: Location{
			Longitude: req.Location.Coordinates[0],
			Latitude:  req.Location.Coordinates[1],
			Address:   req.Location.Address,
		},
		Date:         req.Date,
		EndDate:      req.EndDate,
		Categories:   req.Categories,
		MaxAttendees: req.MaxAttendees,
	}

	created, err := h.service.Create(r.Context(), ev, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSearchByLocation(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	lonStr := params.Get("longitude")
	latStr := params.Get("latitude")
	if lonStr == "" || latStr == "" {
		writeMessage(w, http.StatusBadRequest, ErrMissingCenter.Error())
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "longitude must be a number")
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "latitude must be a number")
		return
	}

	q, err := parseSearchQuery(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	q.RadiusKm = h.defaultRadiusKm
	if radiusStr := params.Get("radius"); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			writeMessage(w, http.StatusBadRequest, "radius must be a positive number of kilometers")
			return
		}
		q.RadiusKm = radius
	}

	result, err := h.service.SearchNearby(r.Context(), geo.Point{Longitude: lon, Latitude: lat}, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	ev, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := EventUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date,
		EndDate:      req.EndDate,
		Categories:   req.Categories,
		MaxAttendees: req.MaxAttendees,
		Status:       req.Status,
	}
	if req.Location != nil {
		if len(req.Location.Coordinates) != 2 {
			writeMessage(w, http.StatusBadRequest, "location coordinates must be [longitude, latitude]")
			return
		}
		updates.Location = &Location{
			Longitude: req.Location.Coordinates[0],
			Latitude:  req.Location.Coordinates[1],
			Address:   req.Location.Address,
		}
	}

	ev, err := h.service.Update(r.Context(), id, updates, callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, callerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// parseSearchQuery reads the shared filter and pagination parameters.
// Non-numeric page and limit values fall back to the service defaults
// rather than failing the request.
func parseSearchQuery(r *http.Request) (SearchQuery, error) {
	params := r.URL.Query()
	q := SearchQuery{
		Term:       params.Get("search"),
		Categories: params["category"],
	}

	q.Page, _ = strconv.Atoi(params.Get("page"))
	q.PageSize, _ = strconv.Atoi(params.Get("limit"))

	if v := params.Get("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return SearchQuery{}, ValidationError{Field: "startDate", Message: "must be an ISO-8601 date"}
		}
		q.DateFrom = &t
	}
	if v := params.Get("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return SearchQuery{}, ValidationError{Field: "endDate", Message: "must be an ISO-8601 date"}
		}
		q.DateTo = &t
	}
	return q, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// callerID extracts the requesting user's identity. Authentication itself
// happens upstream; by the time a request reaches this service the gateway
// has resolved the caller into this header.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	var verr ValidationError
	switch {
	case errors.Is(err, ErrEventNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOrganizer):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrTextSearchUnsupported):
		writeMessage(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, err.Error())
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
