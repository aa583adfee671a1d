package handler

import (
	"encoding/json"
	"net/http"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/core/service"

	"github.com/go-playground/validator/v10"
)

type ProfileHandler struct {
	profileRepo repository.ProfileRepository
	profiles    service.ProfileService
	validate    *validator.Validate
}

func NewProfileHandler(profileRepo repository.ProfileRepository, profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileRepo: profileRepo,
		profiles:    profiles,
		validate:    validator.New(),
	}
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var profile model.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&profile); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created := model.NewProfile(profile.Name, profile.ConditionType, profile.Priority)
	created.IntervalMS = profile.IntervalMS
	created.MinDistanceM = profile.MinDistanceM
	created.SyncIntervalS = profile.SyncIntervalS
	created.SpeedThreshold = profile.SpeedThreshold
	created.DeactivationDelayS = profile.DeactivationDelayS
	created.Enabled = profile.Enabled
	if err := h.profileRepo.Create(created); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.recheck()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(created)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileRepo.FindAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profiles)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var profile model.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if profile.ID == "" {
		http.Error(w, "Profile ID required", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&profile); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.profileRepo.Update(&profile); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.recheck()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Profile ID required", http.StatusBadRequest)
		return
	}

	if err := h.profileRepo.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.recheck()
	w.WriteHeader(http.StatusNoContent)
}

// recheck makes profile mutations take effect immediately: an edited or
// deleted active profile must not linger until the next signal change.
func (h *ProfileHandler) recheck() {
	h.profiles.Invalidate()
	h.profiles.Evaluate()
}
