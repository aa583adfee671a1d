package handler

import (
	"encoding/json"
	"net/http"

	"locagent/internal/core/model"
	"locagent/internal/core/service"
)

type TrackingHandler struct {
	tracking service.TrackingService
}

func NewTrackingHandler(tracking service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// Start begins a tracking session. An optional TrackingConfig body
// overrides the stored configuration.
func (h *TrackingHandler) Start(w http.ResponseWriter, r *http.Request) {
	var cfg *model.TrackingConfig
	if r.ContentLength > 0 {
		cfg = &model.TrackingConfig{}
		if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := h.tracking.Start(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.tracking.Stop("user request")
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) Flush(w http.ResponseWriter, r *http.Request) {
	h.tracking.ManualFlush()
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) RecheckZone(w http.ResponseWriter, r *http.Request) {
	h.tracking.RecheckZone()
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) ExitZone(w http.ResponseWriter, r *http.Request) {
	h.tracking.ForceExitZone()
	writeStatus(w, h.tracking)
}

func (h *TrackingHandler) RecheckProfiles(w http.ResponseWriter, r *http.Request) {
	h.tracking.RecheckProfiles()
	writeStatus(w, h.tracking)
}

// Reconfigure reloads TrackingConfig from the store, or from the request
// body when one is supplied.
func (h *TrackingHandler) Reconfigure(w http.ResponseWriter, r *http.Request) {
	var cfg *model.TrackingConfig
	if r.ContentLength > 0 {
		cfg = &model.TrackingConfig{}
		if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := h.tracking.Reconfigure(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, h.tracking)
}

func writeStatus(w http.ResponseWriter, tracking service.TrackingService) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tracking.Status())
}
