package repository

import (
	"sync"
)

type inMemorySettingsRepository struct {
	settings map[string]string
	mutex    sync.RWMutex
}

func NewInMemorySettingsRepository() SettingsRepository {
	return &inMemorySettingsRepository{
		settings: make(map[string]string),
	}
}

func (r *inMemorySettingsRepository) Save(key, value string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.settings[key] = value
	return nil
}

func (r *inMemorySettingsRepository) Get(key string) (string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.settings[key], nil
}

func (r *inMemorySettingsRepository) GetAll() (map[string]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make(map[string]string, len(r.settings))
	for k, v := range r.settings {
		out[k] = v
	}
	return out, nil
}
