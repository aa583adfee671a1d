package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locagent/internal/api/handler"
	"locagent/internal/api/middleware"
	"locagent/internal/api/ws"
	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/core/service"
	"locagent/internal/location"
)

type routerFixture struct {
	handler  http.Handler
	tracking service.TrackingService
	zoneRepo repository.ZoneRepository
	provider *location.PushProvider
}

type discardSender struct{}

func (discardSender) Send([]byte, string, map[string]string, string) error { return nil }

func newRouterFixture(t *testing.T, secret string) *routerFixture {
	t.Helper()

	zoneRepo := repository.NewInMemoryZoneRepository()
	profileRepo := repository.NewInMemoryProfileRepository()
	provider := location.NewPushProvider()

	geofence := service.NewGeofenceService(zoneRepo)
	profiles := service.NewProfileService(profileRepo, service.NopEventSink{})
	syncEngine := service.NewSyncService(repository.NewInMemoryQueueRepository(), discardSender{})
	tracking := service.NewTrackingService(
		provider, geofence, profiles, syncEngine,
		repository.NewInMemoryFixRepository(),
		repository.NewInMemorySettingsRepository(),
		service.NopEventSink{})

	hub := ws.NewHub()
	go hub.Run()

	h := NewRouter(Deps{
		Tracking: handler.NewTrackingHandler(tracking),
		Fixes:    handler.NewFixHandler(provider, profiles, syncEngine),
		Zones:    handler.NewZoneHandler(zoneRepo, geofence),
		Profiles: handler.NewProfileHandler(profileRepo, profiles),
		Status:   handler.NewStatusHandler(),
		Hub:      hub,
		Auth:     middleware.NewAuthMiddleware(secret),
	})

	t.Cleanup(func() {
		tracking.Stop("test teardown")
		syncEngine.Stop()
	})
	return &routerFixture{handler: h, tracking: tracking, zoneRepo: zoneRepo, provider: provider}
}

func (fx *routerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func startBody() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":       "http://127.0.0.1:9101/pub",
		"intervalMs":     30000,
		"minDistanceM":   10,
		"syncIntervalS":  300,
		"retryIntervalS": 60,
		"maxRetries":     5,
		"httpMethod":     "POST",
	}
}

func TestRouterHealth(t *testing.T) {
	fx := newRouterFixture(t, "")
	rec := fx.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterTrackingLifecycle(t *testing.T) {
	fx := newRouterFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/tracking/start", startBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var status service.StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, service.StateActive, status.State)

	rec = fx.do(t, http.MethodPost, "/api/tracking/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, service.StateStopped, status.State)
}

func TestRouterFixIngest(t *testing.T) {
	fx := newRouterFixture(t, "")
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodPost, "/api/tracking/start", startBody()).Code)

	rec := fx.do(t, http.MethodPost, "/api/fixes", map[string]interface{}{
		"latitude":  48.1,
		"longitude": 11.5,
		"accuracy":  5,
		"battery":   90,
		"timestamp": 1700000000,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	status := fx.tracking.Status()
	require.NotNil(t, status.LastFix)
	assert.Equal(t, 48.1, status.LastFix.Latitude)
	assert.Equal(t, int64(1), status.QueueCount)
}

func TestRouterFixIngestRejectsInvalidCoordinates(t *testing.T) {
	fx := newRouterFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/fixes", map[string]interface{}{
		"latitude":  200,
		"longitude": 11.5,
		"accuracy":  5,
		"timestamp": 1700000000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterConditions(t *testing.T) {
	fx := newRouterFixture(t, "")
	rec := fx.do(t, http.MethodPost, "/api/conditions", map[string]interface{}{
		"charging": true,
		"wifi":     false,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouterZoneCreateTakesEffect(t *testing.T) {
	fx := newRouterFixture(t, "")
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodPost, "/api/tracking/start", startBody()).Code)

	rec := fx.do(t, http.MethodPost, "/api/zones", map[string]interface{}{
		"name":          "home",
		"latitude":      48.1,
		"longitude":     11.5,
		"radiusM":       100,
		"enabled":       true,
		"pauseTracking": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var zone model.GeofenceZone
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &zone))
	assert.NotEmpty(t, zone.ID)

	// A fix inside the new zone pauses tracking right away; the create
	// invalidated the zone cache.
	fx.provider.Offer(model.NewFix(48.1, 11.5, 5, 1700000000))
	assert.Equal(t, service.StatePaused, fx.tracking.Status().State)

	rec = fx.do(t, http.MethodGet, "/api/zones", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var zones []*model.GeofenceZone
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &zones))
	assert.Len(t, zones, 1)
}

func TestRouterZoneDelete(t *testing.T) {
	fx := newRouterFixture(t, "")
	zone := model.NewGeofenceZone("home", 48.1, 11.5, 100)
	require.NoError(t, fx.zoneRepo.Create(zone))

	rec := fx.do(t, http.MethodPost, "/api/zones/delete?id="+zone.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	zones, err := fx.zoneRepo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestRouterProfileCreateAndList(t *testing.T) {
	fx := newRouterFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/profiles", map[string]interface{}{
		"name":          "driving",
		"conditionType": "speed_above",
		"speedThreshold": 13.89,
		"intervalMs":    2000,
		"priority":      20,
		"enabled":       true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles []*model.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, "driving", profiles[0].Name)
}

func TestRouterStatusMirror(t *testing.T) {
	fx := newRouterFixture(t, "")

	// Without Redis configured the mirror is empty but the endpoint works.
	rec := fx.do(t, http.MethodGet, "/api/status/mirror", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestRouterMethodNotAllowed(t *testing.T) {
	fx := newRouterFixture(t, "")
	rec := fx.do(t, http.MethodGet, "/api/tracking/start", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouterRequiresAuthWhenSecretSet(t *testing.T) {
	fx := newRouterFixture(t, "test-secret")
	rec := fx.do(t, http.MethodGet, "/api/tracking/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
