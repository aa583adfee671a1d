package repository

import (
	"sync"

	"locagent/internal/core/model"
)

type inMemoryQueueRepository struct {
	items []*model.QueueItem
	mutex sync.RWMutex
}

func NewInMemoryQueueRepository() QueueRepository {
	return &inMemoryQueueRepository{}
}

func (r *inMemoryQueueRepository) Enqueue(item *model.QueueItem) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *item
	r.items = append(r.items, &copied)
	return nil
}

func (r *inMemoryQueueRepository) DequeuePage(limit, offset int) ([]*model.QueueItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if offset >= len(r.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.items) {
		end = len(r.items)
	}

	out := make([]*model.QueueItem, 0, end-offset)
	for _, item := range r.items[offset:end] {
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (r *inMemoryQueueRepository) RemoveBatch(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	kept := r.items[:0]
	for _, item := range r.items {
		if !remove[item.ID] {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

func (r *inMemoryQueueRepository) IncrementRetry(id, lastError string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, item := range r.items {
		if item.ID == id {
			item.RetryCount++
			item.LastError = lastError
			return nil
		}
	}
	return nil
}

func (r *inMemoryQueueRepository) CountQueued() (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return int64(len(r.items)), nil
}
