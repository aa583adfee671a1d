package repository

import (
	"sort"
	"sync"

	"locagent/internal/core/model"
)

type inMemoryProfileRepository struct {
	profiles []*model.Profile
	mutex    sync.RWMutex
}

func NewInMemoryProfileRepository() ProfileRepository {
	return &inMemoryProfileRepository{}
}

func (r *inMemoryProfileRepository) Create(profile *model.Profile) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *profile
	r.profiles = append(r.profiles, &copied)
	return nil
}

func (r *inMemoryProfileRepository) Update(profile *model.Profile) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, p := range r.profiles {
		if p.ID == profile.ID {
			copied := *profile
			copied.CreatedAt = p.CreatedAt
			r.profiles[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *inMemoryProfileRepository) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, p := range r.profiles {
		if p.ID == id {
			r.profiles = append(r.profiles[:i], r.profiles[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *inMemoryProfileRepository) FindByID(id string) (*model.Profile, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, p := range r.profiles {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryProfileRepository) FindAll() ([]*model.Profile, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (r *inMemoryProfileRepository) FindEnabled() ([]*model.Profile, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*model.Profile
	for _, p := range r.profiles {
		if p.Enabled {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}
