package location

import (
	"sync"
	"time"

	"locagent/internal/core/model"
	"locagent/internal/geo"
)

// PushProvider is a Provider fed by Offer calls from the outside (the fix
// ingest endpoint, a replay tool, or tests). It enforces the subscription's
// interval and minimum-distance gate before delivering.
//
// The callback runs outside the provider lock, so a subscriber may swap
// the subscription from within its own callback. Subscribers that need
// swap atomicity tag their callbacks (the orchestrator uses a generation
// counter) rather than relying on provider-side exclusion.
type PushProvider struct {
	mu            sync.Mutex
	cb            Callback
	intervalMS    int
	minDistanceM  float64
	lastDelivered *model.Fix
	lastDeliverAt time.Time
	lastKnown     *model.Fix

	nowFn func() time.Time
}

func NewPushProvider() *PushProvider {
	return &PushProvider{nowFn: time.Now}
}

func (p *PushProvider) RequestUpdates(intervalMS int, minDistanceM float64, cb Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cb = cb
	p.intervalMS = intervalMS
	p.minDistanceM = minDistanceM
	p.lastDelivered = nil
	p.lastDeliverAt = time.Time{}
	return nil
}

func (p *PushProvider) RemoveUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb = nil
}

func (p *PushProvider) GetLastLocation() (*model.Fix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastKnown == nil {
		return nil, nil
	}
	copied := *p.lastKnown
	return &copied, nil
}

// Offer feeds one fix into the provider. It always updates the last-known
// fix; delivery to the subscriber happens only when the interval and
// distance gates pass.
func (p *PushProvider) Offer(fix *model.Fix) {
	p.mu.Lock()

	copied := *fix
	p.lastKnown = &copied

	cb := p.cb
	if cb == nil {
		p.mu.Unlock()
		return
	}

	now := p.nowFn()
	if p.lastDelivered != nil {
		if p.intervalMS > 0 {
			elapsed := now.Sub(p.lastDeliverAt)
			if elapsed < time.Duration(p.intervalMS)*time.Millisecond {
				p.mu.Unlock()
				return
			}
		}
		if p.minDistanceM > 0 {
			d := geo.HaversineM(p.lastDelivered.Latitude, p.lastDelivered.Longitude,
				fix.Latitude, fix.Longitude)
			if d < p.minDistanceM {
				p.mu.Unlock()
				return
			}
		}
	}

	p.lastDelivered = &copied
	p.lastDeliverAt = now
	p.mu.Unlock()

	cb(fix)
}
