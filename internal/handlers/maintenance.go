package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motolog/internal/maintenance"
	"github.com/ukydev/motolog/internal/models"
)

// maxBodyBytes caps request bodies on item writes.
const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string              `json:"message"`
	ID      int64               `json:"id,omitempty"`
	Errors  []models.FieldError `json:"errors,omitempty"`
}

type reportSavedResponse struct {
	Message   string  `json:"message"`
	Path      string  `json:"path"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"totalCost"`
}

// MaintenanceHandler serves the maintenance API
type MaintenanceHandler struct {
	service *maintenance.Service
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(service *maintenance.Service) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

// Register mounts the maintenance routes on r. Item ids must be decimal;
// anything else falls through to the router's not found handler.
func (h *MaintenanceHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id:[0-9]+}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}", h.UpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/items/{id:[0-9]+}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/report", h.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/report", h.SaveReport).Methods(http.MethodPost)
}

// NewRouter returns a router with the maintenance API, a health check and
// JSON not found responses.
func NewRouter(h *MaintenanceHandler) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.HandleFunc("/health", Health).Methods(http.MethodGet)
	h.Register(r)
	return r
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unknown routes and malformed ids.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
}

// ListItems returns every item with its next service projection.
func (h *MaintenanceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem validates and stores a new item.
func (h *MaintenanceHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	id, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Item added successfully", ID: id})
}

// GetItem returns the stored item without derived fields.
func (h *MaintenanceHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateItem replaces every field of an item.
func (h *MaintenanceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, form); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item updated successfully"})
}

// DeleteItem removes an item.
func (h *MaintenanceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}

// GetReport returns the current report without saving it.
func (h *MaintenanceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Report(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// SaveReport writes the current report to the configured file.
func (h *MaintenanceHandler) SaveReport(w http.ResponseWriter, r *http.Request) {
	rep, path, err := h.service.SaveReport(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportSavedResponse{
		Message:   "Report generated successfully",
		Path:      path,
		Count:     rep.Count,
		TotalCost: rep.TotalCost,
	})
}

func (h *MaintenanceHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Item not found"})
	case errors.Is(err, models.ErrReportWrite):
		log.WithError(err).Error("Failed to write maintenance report")
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed to write report"})
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Maintenance request failed")
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}
}

// itemID reads the id route variable. Values that overflow int64 are
// answered as not found, like any other id that cannot exist.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		NotFound(w, r)
		return 0, false
	}
	return id, true
}

func decodeForm(w http.ResponseWriter, r *http.Request) (models.Form, bool) {
	var form models.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid JSON"})
		return form, false
	}
	return form, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
