package model

import (
	"github.com/google/uuid"
)

// Battery status values reported by the host device.
const (
	BatteryUnknown     = "unknown"
	BatteryCharging    = "charging"
	BatteryDischarging = "discharging"
	BatteryFull        = "full"
)

// Fix is one sampled position with device metadata. Timestamp is epoch
// seconds as reported by the positioning source.
type Fix struct {
	ID            string   `json:"id" bson:"id"`
	Latitude      float64  `json:"latitude" bson:"latitude"`
	Longitude     float64  `json:"longitude" bson:"longitude"`
	Accuracy      float64  `json:"accuracy" bson:"accuracy"`
	Altitude      *float64 `json:"altitude,omitempty" bson:"altitude,omitempty"`
	Speed         *float64 `json:"speed,omitempty" bson:"speed,omitempty"`
	Bearing       *float64 `json:"bearing,omitempty" bson:"bearing,omitempty"`
	Battery       float64  `json:"battery" bson:"battery"`
	BatteryStatus string   `json:"batteryStatus" bson:"batterystatus"`
	Timestamp     int64    `json:"timestamp" bson:"timestamp"`
}

func NewFix(lat, lon, accuracy float64, timestamp int64) *Fix {
	return &Fix{
		ID:            uuid.NewString(),
		Latitude:      lat,
		Longitude:     lon,
		Accuracy:      accuracy,
		Timestamp:     timestamp,
		BatteryStatus: BatteryUnknown,
	}
}

// SameSample reports whether two fixes carry the identical
// (timestamp, latitude, longitude) triple. Such duplicates are dropped.
func (f *Fix) SameSample(other *Fix) bool {
	if other == nil {
		return false
	}
	return f.Timestamp == other.Timestamp &&
		f.Latitude == other.Latitude &&
		f.Longitude == other.Longitude
}
