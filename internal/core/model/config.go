package model

import (
	"github.com/go-playground/validator/v10"
)

// TrackingConfig is an immutable snapshot of collection parameters. It is
// replaced wholesale on every (re)configuration, never mutated in place.
type TrackingConfig struct {
	Endpoint           string            `json:"endpoint" yaml:"endpoint" validate:"required,url"`
	IntervalMS         int               `json:"intervalMs" yaml:"intervalMs" validate:"gte=0"`
	MinDistanceM       float64           `json:"minDistanceM" yaml:"minDistanceM" validate:"gte=0"`
	SyncIntervalS      int               `json:"syncIntervalS" yaml:"syncIntervalS" validate:"gte=0"`
	RetryIntervalS     int               `json:"retryIntervalS" yaml:"retryIntervalS" validate:"gte=1"`
	MaxRetries         int               `json:"maxRetries" yaml:"maxRetries" validate:"gte=1"`
	AccuracyThresholdM float64           `json:"accuracyThresholdM" yaml:"accuracyThresholdM" validate:"gte=0"`
	FilterInaccurate   bool              `json:"filterInaccurate" yaml:"filterInaccurate"`
	OfflineMode        bool              `json:"offlineMode" yaml:"offlineMode"`
	WifiOnly           bool              `json:"wifiOnly" yaml:"wifiOnly"`
	FieldMap           map[string]string `json:"fieldMap,omitempty" yaml:"fieldMap"`
	CustomFields       map[string]string `json:"customFields,omitempty" yaml:"customFields"`
	HTTPMethod         string            `json:"httpMethod" yaml:"httpMethod" validate:"oneof=POST GET"`
}

var configValidator = validator.New()

// DefaultFieldMap returns the default wire payload key names.
func DefaultFieldMap() map[string]string {
	return map[string]string{
		"latitude":      "lat",
		"longitude":     "lon",
		"accuracy":      "acc",
		"altitude":      "alt",
		"speed":         "vel",
		"battery":       "batt",
		"batteryStatus": "bs",
		"timestamp":     "tst",
		"bearing":       "bear",
	}
}

// DefaultTrackingConfig is the last-resort fallback when no stored or
// supplied configuration validates.
func DefaultTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		Endpoint:           "http://127.0.0.1:8080/ingest",
		IntervalMS:         30000,
		MinDistanceM:       10,
		SyncIntervalS:      0,
		RetryIntervalS:     60,
		MaxRetries:         5,
		AccuracyThresholdM: 50,
		FilterInaccurate:   false,
		FieldMap:           DefaultFieldMap(),
		HTTPMethod:         "POST",
	}
}

// Validate checks the snapshot; callers fall back to DefaultTrackingConfig
// on error rather than propagating it.
func (c *TrackingConfig) Validate() error {
	return configValidator.Struct(c)
}

// Normalized returns a copy with empty optional fields filled from the
// defaults, so the rest of the pipeline never branches on missing maps.
func (c *TrackingConfig) Normalized() *TrackingConfig {
	out := *c
	if out.HTTPMethod == "" {
		out.HTTPMethod = "POST"
	}
	if len(out.FieldMap) == 0 {
		out.FieldMap = DefaultFieldMap()
	}
	if out.RetryIntervalS == 0 {
		out.RetryIntervalS = 60
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = 5
	}
	return &out
}
