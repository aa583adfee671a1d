package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
	"locagent/internal/geo"
	"locagent/internal/location"
)

// Lifecycle states of the orchestrator.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
)

const (
	// Battery percentage below which a discharging device stops tracking.
	lowBatteryPct = 15.0

	// Derived speeds above this are GPS jitter and are discarded (m/s).
	maxDerivedSpeedMS = 278.0

	// Speed backfill only applies when the time delta to the previous fix
	// falls in this window (seconds).
	backfillMinDeltaS = 1
	backfillMaxDeltaS = 60
)

// Settings keys persisted by the orchestrator.
const (
	SettingConfig     = "tracking.config"
	SettingState      = "tracking.state"
	SettingStopReason = "tracking.stop_reason"
)

// StatusSnapshot is a consistent view of the orchestrator state.
type StatusSnapshot struct {
	State         State      `json:"state"`
	ActiveZone    string     `json:"activeZone,omitempty"`
	ActiveProfile string     `json:"activeProfile,omitempty"`
	LastFix       *model.Fix `json:"lastFix,omitempty"`
	QueueCount    int64      `json:"queueCount"`
	LastSyncAt    time.Time  `json:"lastSyncAt,omitempty"`
}

// TrackingService is the top-level state machine: it receives fixes and
// external signals, applies filtering, consults the geofence and profile
// evaluators, drives the sync engine, and emits status events.
type TrackingService interface {
	Start(cfg *model.TrackingConfig) error
	Stop(reason string)
	Reconfigure(cfg *model.TrackingConfig) error
	ManualFlush()
	RecheckZone()
	ForceExitZone()
	RecheckProfiles()
	Status() StatusSnapshot
}

type trackingService struct {
	provider     location.Provider
	geofence     GeofenceService
	profiles     ProfileService
	syncEngine   SyncService
	fixRepo      repository.FixRepository
	settingsRepo repository.SettingsRepository
	sink         EventSink

	// mu guards the state fields below. It is held only for
	// read-modify-write sections, never across store or network calls.
	mu            sync.Mutex
	state         State
	cfg           *model.TrackingConfig
	activeZone    string
	activeProfile string
	lastFix       *model.Fix

	// gen tags the current provider subscription; fixes carrying a stale
	// generation are dropped, which makes hot profile swaps atomic.
	gen uint64
}

func NewTrackingService(
	provider location.Provider,
	geofence GeofenceService,
	profiles ProfileService,
	syncEngine SyncService,
	fixRepo repository.FixRepository,
	settingsRepo repository.SettingsRepository,
	sink EventSink,
) TrackingService {
	s := &trackingService{
		provider:     provider,
		geofence:     geofence,
		profiles:     profiles,
		syncEngine:   syncEngine,
		fixRepo:      fixRepo,
		settingsRepo: settingsRepo,
		sink:         sink,
		state:        StateStopped,
	}
	profiles.SetOverride(s.applyProfileOverride)
	return s
}

func (s *trackingService) Start(cfg *model.TrackingConfig) error {
	if cfg == nil {
		cfg = s.loadStoredConfig()
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		log.Printf("tracking: invalid config (%v), falling back to defaults", err)
		cfg = model.DefaultTrackingConfig()
	}

	s.mu.Lock()
	s.state = StateStarting
	s.cfg = cfg
	s.activeZone = ""
	s.activeProfile = ""
	s.lastFix = nil
	s.mu.Unlock()

	s.subscribe(cfg.IntervalMS, cfg.MinDistanceM)
	s.syncEngine.Start(cfg)
	s.persistConfig(cfg)
	if err := s.settingsRepo.Save(SettingState, "active"); err != nil {
		log.Printf("tracking: state persist failed: %v", err)
	}

	// Seed zone state from the last known fix so a start inside a pause
	// zone pauses synchronously instead of waiting for the first callback.
	if last, err := s.provider.GetLastLocation(); err != nil {
		log.Printf("tracking: last location unavailable: %v", err)
	} else if last != nil {
		if name, in := s.geofence.IsInPauseZone(last); in {
			s.mu.Lock()
			s.state = StatePaused
			s.activeZone = name
			s.lastFix = last
			s.mu.Unlock()
			s.sink.ZoneEntered(name)
			return nil
		}
	}

	s.mu.Lock()
	s.state = StateActive
	s.mu.Unlock()
	return nil
}

func (s *trackingService) Stop(reason string) {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateStopping {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	s.gen++
	s.mu.Unlock()

	s.provider.RemoveUpdates()
	s.syncEngine.Stop()
	s.profiles.Reset()

	if err := s.settingsRepo.Save(SettingState, "stopped"); err != nil {
		log.Printf("tracking: state persist failed: %v", err)
	}
	if err := s.settingsRepo.Save(SettingStopReason, reason); err != nil {
		log.Printf("tracking: stop reason persist failed: %v", err)
	}

	s.mu.Lock()
	s.state = StateStopped
	s.activeZone = ""
	s.activeProfile = ""
	s.mu.Unlock()

	s.sink.TrackingStopped(reason)
}

// Reconfigure reloads the tracking configuration from the store, or applies
// the explicit override when one is supplied. A running session restarts
// with the new snapshot; a stopped one only persists it.
func (s *trackingService) Reconfigure(cfg *model.TrackingConfig) error {
	if cfg == nil {
		cfg = s.loadStoredConfig()
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		log.Printf("tracking: reconfigure rejected (%v), keeping current config", err)
		return nil
	}

	s.mu.Lock()
	running := s.state != StateStopped && s.state != StateStopping
	s.mu.Unlock()

	if running {
		return s.Start(cfg)
	}
	s.persistConfig(cfg)
	return nil
}

func (s *trackingService) ManualFlush() {
	s.syncEngine.ManualFlush()
}

func (s *trackingService) RecheckZone() {
	s.mu.Lock()
	fix := s.lastFix
	s.mu.Unlock()

	if fix == nil {
		var err error
		fix, err = s.provider.GetLastLocation()
		if err != nil || fix == nil {
			return
		}
	}
	s.applyZoneState(fix)
}

func (s *trackingService) ForceExitZone() {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return
	}
	old := s.activeZone
	s.activeZone = ""
	s.state = StateActive
	s.mu.Unlock()

	s.sink.ZoneExited(old)
}

func (s *trackingService) RecheckProfiles() {
	s.profiles.Invalidate()
	s.profiles.Evaluate()
}

func (s *trackingService) Status() StatusSnapshot {
	s.mu.Lock()
	snap := StatusSnapshot{
		State:         s.state,
		ActiveZone:    s.activeZone,
		ActiveProfile: s.activeProfile,
		LastFix:       s.lastFix,
	}
	s.mu.Unlock()

	if snap.LastFix == nil {
		// No fix this session; the stored history survives restarts.
		if fix, err := s.fixRepo.FindLatest(); err == nil {
			snap.LastFix = fix
		}
	}

	snap.QueueCount = s.syncEngine.QueueCount()
	snap.LastSyncAt = s.syncEngine.LastSyncAt()
	return snap
}

// subscribe replaces the provider subscription. Bumping the generation
// first guarantees no fix from the superseded subscription is processed
// once the swap has begun.
func (s *trackingService) subscribe(intervalMS int, minDistanceM float64) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.provider.RemoveUpdates()
	if err := s.provider.RequestUpdates(intervalMS, minDistanceM, func(fix *model.Fix) {
		s.handleFix(gen, fix)
	}); err != nil {
		log.Printf("tracking: subscription failed: %v", err)
	}
}

func (s *trackingService) handleFix(gen uint64, fix *model.Fix) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if s.state != StateActive && s.state != StatePaused && s.state != StateStarting {
		s.mu.Unlock()
		return
	}
	if fix.SameSample(s.lastFix) {
		s.mu.Unlock()
		return
	}
	cfg := s.cfg
	if cfg.FilterInaccurate && fix.Accuracy > cfg.AccuracyThresholdM {
		s.mu.Unlock()
		return
	}
	prev := s.lastFix
	s.mu.Unlock()

	backfillSpeed(fix, prev)

	// The last fix advances even while paused so zone exits and duplicate
	// checks keep working.
	s.mu.Lock()
	s.lastFix = fix
	s.mu.Unlock()

	s.profiles.OnFix(fix)

	if paused := s.applyZoneState(fix); paused {
		return
	}

	if fix.BatteryStatus == model.BatteryDischarging && fix.Battery > 0 && fix.Battery < lowBatteryPct {
		s.Stop("battery critical")
		return
	}

	if err := s.fixRepo.Create(fix); err != nil {
		// Delivery still matters more than local history; keep going.
		log.Printf("tracking: fix persist failed: %v", err)
	}
	payload, err := BuildPayload(cfg, fix)
	if err != nil {
		log.Printf("tracking: payload build failed: %v", err)
		return
	}
	if err := s.syncEngine.Enqueue(fix.ID, payload); err != nil {
		log.Printf("tracking: enqueue failed: %v", err)
		return
	}
	s.sink.FixAccepted(fix)
}

// applyZoneState reconciles the pause state against the zone evaluation for
// the given fix and reports whether collection is (now) paused.
func (s *trackingService) applyZoneState(fix *model.Fix) bool {
	name, in := s.geofence.IsInPauseZone(fix)

	s.mu.Lock()
	switch {
	case in && s.state != StatePaused:
		s.state = StatePaused
		s.activeZone = name
		s.mu.Unlock()
		s.sink.ZoneEntered(name)
		return true

	case in && s.state == StatePaused:
		if name == s.activeZone {
			s.mu.Unlock()
			return true
		}
		old := s.activeZone
		s.activeZone = name
		s.mu.Unlock()
		s.sink.ZoneExited(old)
		s.sink.ZoneEntered(name)
		return true

	case !in && s.state == StatePaused:
		old := s.activeZone
		s.activeZone = ""
		s.state = StateActive
		s.mu.Unlock()
		s.sink.ZoneExited(old)
		return false

	default:
		s.mu.Unlock()
		return false
	}
}

// applyProfileOverride hot-swaps sampling parameters. Registered as the
// profile evaluator's override callback; a nil profile reverts to the
// configured defaults.
func (s *trackingService) applyProfileOverride(p *model.Profile) {
	s.mu.Lock()
	cfg := s.cfg
	if cfg == nil || s.state == StateStopped || s.state == StateStopping {
		s.mu.Unlock()
		return
	}
	intervalMS := cfg.IntervalMS
	minDistanceM := cfg.MinDistanceM
	syncIntervalS := cfg.SyncIntervalS
	name := ""
	if p != nil {
		intervalMS = p.IntervalMS
		minDistanceM = p.MinDistanceM
		syncIntervalS = p.SyncIntervalS
		name = p.Name
	}
	s.activeProfile = name
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.provider.RemoveUpdates()
	if err := s.provider.RequestUpdates(intervalMS, minDistanceM, func(fix *model.Fix) {
		s.handleFix(gen, fix)
	}); err != nil {
		log.Printf("tracking: resubscribe failed: %v", err)
	}
	s.syncEngine.SetSyncInterval(syncIntervalS)
}

func backfillSpeed(fix, prev *model.Fix) {
	if fix.Speed != nil || prev == nil {
		return
	}
	dt := fix.Timestamp - prev.Timestamp
	if dt < backfillMinDeltaS || dt > backfillMaxDeltaS {
		return
	}
	d := geo.HaversineM(prev.Latitude, prev.Longitude, fix.Latitude, fix.Longitude)
	v := d / float64(dt)
	if v > maxDerivedSpeedMS {
		return
	}
	fix.Speed = &v
}

func (s *trackingService) loadStoredConfig() *model.TrackingConfig {
	raw, err := s.settingsRepo.Get(SettingConfig)
	if err != nil || raw == "" {
		if err != nil {
			log.Printf("tracking: stored config read failed: %v", err)
		}
		return model.DefaultTrackingConfig()
	}
	var cfg model.TrackingConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		log.Printf("tracking: stored config unreadable, using defaults: %v", err)
		return model.DefaultTrackingConfig()
	}
	return &cfg
}

func (s *trackingService) persistConfig(cfg *model.TrackingConfig) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("tracking: config marshal failed: %v", err)
		return
	}
	if err := s.settingsRepo.Save(SettingConfig, string(raw)); err != nil {
		log.Printf("tracking: config persist failed: %v", err)
	}
}
