package handler

import (
	"encoding/json"
	"net/http"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/core/service"

	"github.com/go-playground/validator/v10"
)

type ZoneHandler struct {
	zoneRepo repository.ZoneRepository
	geofence service.GeofenceService
	validate *validator.Validate
}

func NewZoneHandler(zoneRepo repository.ZoneRepository, geofence service.GeofenceService) *ZoneHandler {
	return &ZoneHandler{
		zoneRepo: zoneRepo,
		geofence: geofence,
		validate: validator.New(),
	}
}

func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var zone model.GeofenceZone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&zone); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created := model.NewGeofenceZone(zone.Name, zone.Latitude, zone.Longitude, zone.RadiusM)
	created.Enabled = zone.Enabled
	created.PauseTracking = zone.PauseTracking
	if err := h.zoneRepo.Create(created); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.geofence.Invalidate()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(created)
}

func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zoneRepo.FindAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(zones)
}

func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	var zone model.GeofenceZone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if zone.ID == "" {
		http.Error(w, "Zone ID required", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&zone); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.zoneRepo.Update(&zone); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.geofence.Invalidate()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&zone)
}

func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Zone ID required", http.StatusBadRequest)
		return
	}

	if err := h.zoneRepo.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.geofence.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
