package service

import (
	"encoding/json"

	"locagent/internal/core/model"
)

// BuildPayload renders the flat outbound JSON object for one fix. Key names
// come from the config's field map; static custom fields are merged in
// first so mapped fields win on collision.
func BuildPayload(cfg *model.TrackingConfig, fix *model.Fix) ([]byte, error) {
	out := make(map[string]interface{}, len(cfg.CustomFields)+9)
	for k, v := range cfg.CustomFields {
		out[k] = v
	}

	key := func(logical, fallback string) string {
		if v, ok := cfg.FieldMap[logical]; ok && v != "" {
			return v
		}
		return fallback
	}

	out[key("latitude", "lat")] = fix.Latitude
	out[key("longitude", "lon")] = fix.Longitude
	out[key("accuracy", "acc")] = fix.Accuracy
	out[key("battery", "batt")] = fix.Battery
	out[key("batteryStatus", "bs")] = fix.BatteryStatus
	out[key("timestamp", "tst")] = fix.Timestamp
	if fix.Altitude != nil {
		out[key("altitude", "alt")] = *fix.Altitude
	}
	if fix.Speed != nil {
		out[key("speed", "vel")] = *fix.Speed
	}
	if fix.Bearing != nil {
		out[key("bearing", "bear")] = *fix.Bearing
	}

	return json.Marshal(out)
}
