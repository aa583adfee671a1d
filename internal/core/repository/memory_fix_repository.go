package repository

import (
	"sync"

	"locagent/internal/core/model"
)

type inMemoryFixRepository struct {
	fixes []*model.Fix
	mutex sync.RWMutex
}

func NewInMemoryFixRepository() FixRepository {
	return &inMemoryFixRepository{}
}

func (r *inMemoryFixRepository) Create(fix *model.Fix) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *fix
	r.fixes = append(r.fixes, &copied)
	return nil
}

func (r *inMemoryFixRepository) FindLatest() (*model.Fix, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *model.Fix
	for _, f := range r.fixes {
		if latest == nil || f.Timestamp > latest.Timestamp {
			latest = f
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *inMemoryFixRepository) FindSince(epoch int64) ([]*model.Fix, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*model.Fix
	for _, f := range r.fixes {
		if f.Timestamp >= epoch {
			copied := *f
			out = append(out, &copied)
		}
	}
	return out, nil
}
