package model

import (
	"time"

	"github.com/google/uuid"
)

// GeofenceZone is a named circular region. Only zones with both Enabled and
// PauseTracking set participate in pause evaluation.
type GeofenceZone struct {
	ID            string    `json:"id" bson:"id"`
	Name          string    `json:"name" bson:"name" validate:"required"`
	Latitude      float64   `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64   `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
	RadiusM       float64   `json:"radiusM" bson:"radiusm" validate:"gt=0"`
	Enabled       bool      `json:"enabled" bson:"enabled"`
	PauseTracking bool      `json:"pauseTracking" bson:"pausetracking"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdat"`
}

func NewGeofenceZone(name string, lat, lon, radiusM float64) *GeofenceZone {
	return &GeofenceZone{
		ID:            uuid.NewString(),
		Name:          name,
		Latitude:      lat,
		Longitude:     lon,
		RadiusM:       radiusM,
		Enabled:       true,
		PauseTracking: true,
		CreatedAt:     time.Now().UTC(),
	}
}
