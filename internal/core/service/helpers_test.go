package service

import (
	"errors"
	"sync"

	"locagent/internal/core/model"
	"locagent/internal/location"
)

// fakeSender records send attempts and fails on demand.
type fakeSender struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeSender) Send(payload []byte, endpoint string, headers map[string]string, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("send failed")
	}
	return nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSender) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// fakeProvider is a scriptable location.Provider.
type fakeProvider struct {
	mu           sync.Mutex
	cb           location.Callback
	intervalMS   int
	minDistanceM float64
	last         *model.Fix
	subscribes   int
	removes      int
}

func (p *fakeProvider) RequestUpdates(intervalMS int, minDistanceM float64, cb location.Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb = cb
	p.intervalMS = intervalMS
	p.minDistanceM = minDistanceM
	p.subscribes++
	return nil
}

func (p *fakeProvider) GetLastLocation() (*model.Fix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, nil
}

func (p *fakeProvider) RemoveUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb = nil
	p.removes++
}

func (p *fakeProvider) emit(fix *model.Fix) {
	p.mu.Lock()
	cb := p.cb
	p.mu.Unlock()
	if cb != nil {
		cb(fix)
	}
}

func (p *fakeProvider) subscription() (int, float64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intervalMS, p.minDistanceM, p.subscribes
}

// recordingSink captures emitted events.
type recordingSink struct {
	mu       sync.Mutex
	accepted []*model.Fix
	entered  []string
	exited   []string
	switched []string
	stopped  []string
}

func (s *recordingSink) FixAccepted(fix *model.Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = append(s.accepted, fix)
}

func (s *recordingSink) ZoneEntered(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = append(s.entered, name)
}

func (s *recordingSink) ZoneExited(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exited = append(s.exited, name)
}

func (s *recordingSink) ProfileSwitched(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switched = append(s.switched, name)
}

func (s *recordingSink) TrackingStopped(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, reason)
}

func (s *recordingSink) snapshot() (accepted int, entered, exited, switched, stopped []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted),
		append([]string(nil), s.entered...),
		append([]string(nil), s.exited...),
		append([]string(nil), s.switched...),
		append([]string(nil), s.stopped...)
}
