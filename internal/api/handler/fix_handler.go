package handler

import (
	"encoding/json"
	"net/http"

	"locagent/internal/core/model"
	"locagent/internal/core/service"
	"locagent/internal/location"

	"github.com/go-playground/validator/v10"
)

// FixHandler feeds host-reported fixes and device-condition signals into
// the agent.
type FixHandler struct {
	provider *location.PushProvider
	profiles service.ProfileService
	sync     service.SyncService
	validate *validator.Validate
}

func NewFixHandler(provider *location.PushProvider, profiles service.ProfileService, sync service.SyncService) *FixHandler {
	return &FixHandler{
		provider: provider,
		profiles: profiles,
		sync:     sync,
		validate: validator.New(),
	}
}

type offerFixRequest struct {
	Latitude      float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy      float64  `json:"accuracy" validate:"gte=0"`
	Altitude      *float64 `json:"altitude,omitempty"`
	Speed         *float64 `json:"speed,omitempty"`
	Bearing       *float64 `json:"bearing,omitempty"`
	Battery       float64  `json:"battery" validate:"gte=0,lte=100"`
	BatteryStatus string   `json:"batteryStatus,omitempty"`
	Timestamp     int64    `json:"timestamp" validate:"gt=0"`
}

func (h *FixHandler) Offer(w http.ResponseWriter, r *http.Request) {
	var req offerFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fix := model.NewFix(req.Latitude, req.Longitude, req.Accuracy, req.Timestamp)
	fix.Altitude = req.Altitude
	fix.Speed = req.Speed
	fix.Bearing = req.Bearing
	fix.Battery = req.Battery
	if req.BatteryStatus != "" {
		fix.BatteryStatus = req.BatteryStatus
	}

	h.provider.Offer(fix)
	w.WriteHeader(http.StatusAccepted)
}

type conditionsRequest struct {
	Charging  *bool `json:"charging,omitempty"`
	InVehicle *bool `json:"inVehicle,omitempty"`
	Online    *bool `json:"online,omitempty"`
	Wifi      *bool `json:"wifi,omitempty"`
}

// Conditions applies device-condition signal changes. Network becoming
// available triggers a manual flush so the backlog drains promptly.
func (h *FixHandler) Conditions(w http.ResponseWriter, r *http.Request) {
	var req conditionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Charging != nil {
		h.profiles.SetCharging(*req.Charging)
	}
	if req.InVehicle != nil {
		h.profiles.SetInVehicle(*req.InVehicle)
	}
	if req.Wifi != nil {
		h.sync.SetWifi(*req.Wifi)
	}
	if req.Online != nil {
		h.sync.SetOnline(*req.Online)
		if *req.Online {
			go h.sync.ManualFlush()
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
