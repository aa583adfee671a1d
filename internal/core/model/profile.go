package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile condition kinds.
const (
	ConditionCharging   = "charging"
	ConditionInVehicle  = "in_vehicle"
	ConditionSpeedAbove = "speed_above"
	ConditionSpeedBelow = "speed_below"
)

// Profile is a named override of sampling and sync parameters, active only
// while its condition holds (plus the deactivation delay).
type Profile struct {
	ID                 string    `json:"id" bson:"id"`
	Name               string    `json:"name" bson:"name" validate:"required"`
	IntervalMS         int       `json:"intervalMs" bson:"intervalms" validate:"gte=0"`
	MinDistanceM       float64   `json:"minDistanceM" bson:"mindistancem" validate:"gte=0"`
	SyncIntervalS      int       `json:"syncIntervalS" bson:"syncintervals" validate:"gte=0"`
	Priority           int       `json:"priority" bson:"priority"`
	ConditionType      string    `json:"conditionType" bson:"conditiontype" validate:"oneof=charging in_vehicle speed_above speed_below"`
	SpeedThreshold     float64   `json:"speedThreshold,omitempty" bson:"speedthreshold,omitempty"`
	DeactivationDelayS int       `json:"deactivationDelayS" bson:"deactivationdelays" validate:"gte=0"`
	Enabled            bool      `json:"enabled" bson:"enabled"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdat"`
}

func NewProfile(name, conditionType string, priority int) *Profile {
	return &Profile{
		ID:            uuid.NewString(),
		Name:          name,
		ConditionType: conditionType,
		Priority:      priority,
		Enabled:       true,
		CreatedAt:     time.Now().UTC(),
	}
}

// SameParameters reports whether two profiles would produce the same
// sampling override. Used to detect in-place edits of the active profile.
func (p *Profile) SameParameters(other *Profile) bool {
	if other == nil {
		return false
	}
	return p.IntervalMS == other.IntervalMS &&
		p.MinDistanceM == other.MinDistanceM &&
		p.SyncIntervalS == other.SyncIntervalS
}
