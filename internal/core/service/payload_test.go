package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locagent/internal/core/model"
)

func decodePayload(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestBuildPayloadDefaultKeys(t *testing.T) {
	cfg := model.DefaultTrackingConfig()
	fix := model.NewFix(48.1, 11.5, 5, 1700000000)
	fix.Battery = 82
	fix.BatteryStatus = model.BatteryCharging

	raw, err := BuildPayload(cfg, fix)
	require.NoError(t, err)
	got := decodePayload(t, raw)

	assert.Equal(t, 48.1, got["lat"])
	assert.Equal(t, 11.5, got["lon"])
	assert.Equal(t, 5.0, got["acc"])
	assert.Equal(t, 82.0, got["batt"])
	assert.Equal(t, "charging", got["bs"])
	assert.Equal(t, float64(1700000000), got["tst"])

	// Optional fields stay absent when the fix never reported them.
	assert.NotContains(t, got, "alt")
	assert.NotContains(t, got, "vel")
	assert.NotContains(t, got, "bear")
}

func TestBuildPayloadOptionalFields(t *testing.T) {
	cfg := model.DefaultTrackingConfig()
	fix := model.NewFix(48.1, 11.5, 5, 1700000000)
	alt, speed, bearing := 520.0, 13.9, 180.0
	fix.Altitude = &alt
	fix.Speed = &speed
	fix.Bearing = &bearing

	raw, err := BuildPayload(cfg, fix)
	require.NoError(t, err)
	got := decodePayload(t, raw)

	assert.Equal(t, 520.0, got["alt"])
	assert.Equal(t, 13.9, got["vel"])
	assert.Equal(t, 180.0, got["bear"])
}

func TestBuildPayloadCustomFieldMapAndStatics(t *testing.T) {
	cfg := model.DefaultTrackingConfig()
	cfg.FieldMap = map[string]string{
		"latitude":  "y",
		"longitude": "x",
	}
	cfg.CustomFields = map[string]string{
		"device": "van-3",
		"tst":    "should lose",
	}
	fix := model.NewFix(48.1, 11.5, 5, 1700000000)

	raw, err := BuildPayload(cfg, fix)
	require.NoError(t, err)
	got := decodePayload(t, raw)

	assert.Equal(t, 48.1, got["y"])
	assert.Equal(t, 11.5, got["x"])
	// Unmapped logical fields keep their default keys.
	assert.Equal(t, 5.0, got["acc"])
	assert.Equal(t, "van-3", got["device"])
	// Mapped fields win over a colliding custom field.
	assert.Equal(t, float64(1700000000), got["tst"])
}
