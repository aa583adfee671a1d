package service

import (
	"log"
	"sync"
	"time"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/netsend"
)

const (
	drainPageSize    = 50
	drainMaxPages    = 10
	sendConcurrency  = 10
	countCacheTTL    = 5 * time.Second
	idlePollInterval = 30 * time.Second
)

// backoffDelay returns the additional wait applied before the next tick
// after n consecutive failed drain cycles.
func backoffDelay(n int) time.Duration {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 30 * time.Second
	case n == 2:
		return 60 * time.Second
	case n == 3:
		return 300 * time.Second
	default:
		return 900 * time.Second
	}
}

// SyncService owns the delivery queue lifecycle: enqueue, the instant-send
// fast path, the periodic batched drain, retry/backoff, and eviction of
// exhausted items.
type SyncService interface {
	Start(cfg *model.TrackingConfig)
	Stop()
	Enqueue(fixID string, payload []byte) error
	// ManualFlush runs one full drain synchronously regardless of the
	// schedule. Used for user-triggered sync and network-restored hooks.
	ManualFlush()
	SetSyncInterval(seconds int)
	SetOnline(on bool)
	SetWifi(on bool)
	QueueCount() int64
	LastSyncAt() time.Time
}

type syncService struct {
	queueRepo repository.QueueRepository
	sender    netsend.Sender

	mu             sync.Mutex
	cfg            *model.TrackingConfig
	syncIntervalS  int
	online         bool
	wifi           bool
	consecFailures int
	lastSyncAt     time.Time
	countCache     int64
	countCachedAt  time.Time
	running        bool
	stopCh         chan struct{}

	// drainMu serializes drain cycles between the periodic loop and
	// ManualFlush; it is never held together with mu.
	drainMu sync.Mutex

	wakeCh chan struct{}
	nowFn  func() time.Time
}

func NewSyncService(queueRepo repository.QueueRepository, sender netsend.Sender) SyncService {
	return &syncService{
		queueRepo: queueRepo,
		sender:    sender,
		online:    true,
		wifi:      true,
		wakeCh:    make(chan struct{}, 1),
		nowFn:     time.Now,
	}
}

func (s *syncService) Start(cfg *model.TrackingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg.Normalized()
	s.syncIntervalS = s.cfg.SyncIntervalS
	s.consecFailures = 0

	if s.running {
		s.nudge()
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true
	go s.loop(s.stopCh)
}

func (s *syncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *syncService) Enqueue(fixID string, payload []byte) error {
	item := model.NewQueueItem(fixID, payload)
	if err := s.queueRepo.Enqueue(item); err != nil {
		return err
	}
	s.invalidateCount()

	s.mu.Lock()
	instant := s.cfg != nil && s.syncIntervalS == 0 && s.canSendLocked()
	cfg := s.cfg
	s.mu.Unlock()

	if instant {
		// Off the caller's path: an instant attempt must never delay fix
		// ingestion.
		go s.instantSend(cfg, item)
	}
	return nil
}

func (s *syncService) ManualFlush() {
	s.mu.Lock()
	if s.cfg == nil || s.cfg.OfflineMode {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.drainCycle()
}

func (s *syncService) SetSyncInterval(seconds int) {
	s.mu.Lock()
	s.syncIntervalS = seconds
	s.nudge()
	s.mu.Unlock()
}

func (s *syncService) SetOnline(on bool) {
	s.mu.Lock()
	s.online = on
	s.nudge()
	s.mu.Unlock()
}

func (s *syncService) SetWifi(on bool) {
	s.mu.Lock()
	s.wifi = on
	s.mu.Unlock()
}

func (s *syncService) LastSyncAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncAt
}

// QueueCount returns the queued item count through a short-lived cache,
// invalidated on every queue mutation.
func (s *syncService) QueueCount() int64 {
	s.mu.Lock()
	if !s.countCachedAt.IsZero() && s.nowFn().Sub(s.countCachedAt) < countCacheTTL {
		n := s.countCache
		s.mu.Unlock()
		return n
	}
	s.mu.Unlock()

	n, err := s.queueRepo.CountQueued()
	if err != nil {
		log.Printf("sync: queue count failed: %v", err)
		return 0
	}

	s.mu.Lock()
	s.countCache = n
	s.countCachedAt = s.nowFn()
	s.mu.Unlock()
	return n
}

func (s *syncService) invalidateCount() {
	s.mu.Lock()
	s.countCachedAt = time.Time{}
	s.mu.Unlock()
}

func (s *syncService) nudge() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *syncService) canSendLocked() bool {
	if s.cfg == nil || s.cfg.OfflineMode || !s.online {
		return false
	}
	if s.cfg.WifiOnly && !s.wifi {
		return false
	}
	return true
}

func (s *syncService) loop(stopCh chan struct{}) {
	var nextAt time.Time
	for {
		s.mu.Lock()
		interval := s.syncIntervalS
		retryS := s.cfg.RetryIntervalS
		failures := s.consecFailures
		s.mu.Unlock()

		now := s.nowFn()
		var delay time.Duration
		if interval > 0 {
			// Drift-compensated: schedule from the previous tick, not
			// from when the drain finished.
			if nextAt.IsZero() {
				nextAt = now.Add(time.Duration(interval) * time.Second)
			}
			delay = nextAt.Sub(now)
			if delay < 0 {
				delay = 0
			}
		} else {
			nextAt = time.Time{}
			if s.QueueCount() > 0 {
				delay = time.Duration(retryS) * time.Second
			} else {
				delay = idlePollInterval
			}
		}
		if failures > 0 {
			delay += backoffDelay(failures)
		}

		timer := time.NewTimer(delay)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-s.wakeCh:
			// Schedule changed; recompute from scratch.
			timer.Stop()
			nextAt = time.Time{}
			continue
		case <-timer.C:
		}

		if interval > 0 {
			nextAt = nextAt.Add(time.Duration(interval) * time.Second)
		}

		s.mu.Lock()
		ok := s.canSendLocked()
		s.mu.Unlock()
		if ok {
			s.drainCycle()
		}
	}
}

func (s *syncService) instantSend(cfg *model.TrackingConfig, item *model.QueueItem) {
	err := s.sender.Send([]byte(item.Payload), cfg.Endpoint, nil, cfg.HTTPMethod)
	if err != nil {
		// Leave it queued; the periodic path picks it up.
		if ierr := s.queueRepo.IncrementRetry(item.ID, err.Error()); ierr != nil {
			log.Printf("sync: retry increment failed for %s: %v", item.ID, ierr)
		}
		return
	}
	if rerr := s.queueRepo.RemoveBatch([]string{item.ID}); rerr != nil {
		log.Printf("sync: remove after instant send failed for %s: %v", item.ID, rerr)
		return
	}
	s.invalidateCount()
	s.mu.Lock()
	s.lastSyncAt = s.nowFn()
	s.mu.Unlock()
}

// drainCycle runs one bounded pass over the queue: up to drainMaxPages
// pages of drainPageSize items, each page processed in concurrent
// sub-chunks, oldest items first. Succeeded and retry-exhausted items are
// removed in one batch per page.
func (s *syncService) drainCycle() {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	if cfg == nil {
		return
	}

	before, err := s.queueRepo.CountQueued()
	if err != nil {
		log.Printf("sync: drain aborted, count failed: %v", err)
		return
	}

	skipped := 0 // failed items left queued ahead of the next page
	pages := 0
	for pages < drainMaxPages {
		items, err := s.queueRepo.DequeuePage(drainPageSize, skipped)
		if err != nil {
			log.Printf("sync: dequeue failed: %v", err)
			break
		}
		if len(items) == 0 {
			break
		}
		pages++

		removeIDs := s.processPage(cfg, items, &skipped)
		if err := s.queueRepo.RemoveBatch(removeIDs); err != nil {
			log.Printf("sync: batch removal failed: %v", err)
		}
		s.invalidateCount()

		if len(items) < drainPageSize {
			break
		}
	}

	after, err := s.queueRepo.CountQueued()
	if err != nil {
		log.Printf("sync: post-drain count failed: %v", err)
		return
	}
	if pages == drainMaxPages && after > int64(skipped) {
		log.Printf("sync: drain page cap reached, deferring %d items to next cycle", after-int64(skipped))
	}

	s.mu.Lock()
	switch {
	case before > 0 && (after < before || after == 0):
		s.consecFailures = 0
		s.lastSyncAt = s.nowFn()
	case before > 0:
		s.consecFailures++
	}
	s.mu.Unlock()
}

// processPage attempts delivery for one page and returns the ids to remove:
// succeeded items plus items that reached the retry cap. skipped counts
// failed-but-retryable items still occupying the head of the queue.
func (s *syncService) processPage(cfg *model.TrackingConfig, items []*model.QueueItem, skipped *int) []string {
	var removeIDs []string

	for start := 0; start < len(items); start += sendConcurrency {
		end := start + sendConcurrency
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		results := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, item := range chunk {
			if item.RetryCount >= cfg.MaxRetries {
				continue
			}
			wg.Add(1)
			go func(i int, payload string) {
				defer wg.Done()
				results[i] = s.sender.Send([]byte(payload), cfg.Endpoint, nil, cfg.HTTPMethod)
			}(i, item.Payload)
		}
		wg.Wait()

		for i, item := range chunk {
			if item.RetryCount >= cfg.MaxRetries {
				// Exhausted before this cycle: evict without sending.
				log.Printf("sync: evicting %s after %d retries", item.ID, item.RetryCount)
				removeIDs = append(removeIDs, item.ID)
				continue
			}
			if results[i] == nil {
				removeIDs = append(removeIDs, item.ID)
				continue
			}
			if err := s.queueRepo.IncrementRetry(item.ID, results[i].Error()); err != nil {
				log.Printf("sync: retry increment failed for %s: %v", item.ID, err)
			}
			if item.RetryCount+1 >= cfg.MaxRetries {
				log.Printf("sync: evicting %s, retry limit reached: %v", item.ID, results[i])
				removeIDs = append(removeIDs, item.ID)
			} else {
				*skipped++
			}
		}
	}
	return removeIDs
}
