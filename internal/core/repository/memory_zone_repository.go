package repository

import (
	"sync"

	"locagent/internal/core/model"
)

type inMemoryZoneRepository struct {
	zones []*model.GeofenceZone
	mutex sync.RWMutex
}

func NewInMemoryZoneRepository() ZoneRepository {
	return &inMemoryZoneRepository{}
}

func (r *inMemoryZoneRepository) Create(zone *model.GeofenceZone) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *zone
	r.zones = append(r.zones, &copied)
	return nil
}

func (r *inMemoryZoneRepository) Update(zone *model.GeofenceZone) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, z := range r.zones {
		if z.ID == zone.ID {
			copied := *zone
			copied.CreatedAt = z.CreatedAt
			r.zones[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *inMemoryZoneRepository) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, z := range r.zones {
		if z.ID == id {
			r.zones = append(r.zones[:i], r.zones[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *inMemoryZoneRepository) FindByID(id string) (*model.GeofenceZone, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, z := range r.zones {
		if z.ID == id {
			copied := *z
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryZoneRepository) FindAll() ([]*model.GeofenceZone, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*model.GeofenceZone, 0, len(r.zones))
	for _, z := range r.zones {
		copied := *z
		out = append(out, &copied)
	}
	return out, nil
}

func (r *inMemoryZoneRepository) FindActive() ([]*model.GeofenceZone, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*model.GeofenceZone
	for _, z := range r.zones {
		if z.Enabled && z.PauseTracking {
			copied := *z
			out = append(out, &copied)
		}
	}
	return out, nil
}
