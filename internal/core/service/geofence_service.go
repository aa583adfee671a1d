package service

import (
	"log"
	"sync"
	"time"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/geo"
)

const zoneCacheTTL = 30 * time.Second

// GeofenceService answers whether a fix lies inside an active pause zone.
type GeofenceService interface {
	// IsInPauseZone returns the name of the first matching zone in stored
	// order, or false when the fix is outside all active zones. When a fix
	// falls inside overlapping zones the first one in stored order wins;
	// that tie-break is an accepted ambiguity, not a closest-zone policy.
	IsInPauseZone(fix *model.Fix) (string, bool)
	// Invalidate drops the zone cache; must be called after every zone
	// mutation.
	Invalidate()
}

type geofenceService struct {
	zoneRepo repository.ZoneRepository

	mu       sync.Mutex
	zones    []*model.GeofenceZone
	loadedAt time.Time

	nowFn func() time.Time
}

func NewGeofenceService(zoneRepo repository.ZoneRepository) GeofenceService {
	return &geofenceService{
		zoneRepo: zoneRepo,
		nowFn:    time.Now,
	}
}

func (s *geofenceService) IsInPauseZone(fix *model.Fix) (string, bool) {
	zones := s.activeZones()

	for _, z := range zones {
		if !geo.WithinBoundingBox(fix.Latitude, fix.Longitude, z.Latitude, z.Longitude, z.RadiusM) {
			continue
		}
		d := geo.HaversineM(fix.Latitude, fix.Longitude, z.Latitude, z.Longitude)
		if d <= z.RadiusM {
			return z.Name, true
		}
	}
	return "", false
}

func (s *geofenceService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = nil
	s.loadedAt = time.Time{}
}

func (s *geofenceService) activeZones() []*model.GeofenceZone {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	if !s.loadedAt.IsZero() && now.Sub(s.loadedAt) < zoneCacheTTL {
		return s.zones
	}

	zones, err := s.zoneRepo.FindActive()
	if err != nil {
		// Keep the stale cache on a failed refresh; zones rarely change
		// and a transient store error must not flip zone membership.
		log.Printf("geofence: zone refresh failed: %v", err)
		return s.zones
	}
	s.zones = zones
	s.loadedAt = now
	return s.zones
}
