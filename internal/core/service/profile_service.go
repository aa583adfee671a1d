package service

import (
	"log"
	"sync"
	"time"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
)

// speedWindowSize is the number of recent speed samples averaged for the
// speed_above / speed_below conditions.
const speedWindowSize = 5

// OverrideFunc applies a profile's sampling parameters to the tracking
// pipeline. A nil profile reverts to the configured defaults.
type OverrideFunc func(p *model.Profile)

// ProfileService evaluates condition profiles against live device signals
// and decides which profile, if any, overrides the default configuration.
// Evaluation is serialized: concurrent triggers queue on the internal lock
// so "active profile" is a single well-defined value at all times.
type ProfileService interface {
	SetOverride(fn OverrideFunc)
	Evaluate()
	OnFix(fix *model.Fix)
	SetCharging(on bool)
	SetInVehicle(on bool)
	Invalidate()
	ActiveProfileName() string
	Reset()
}

type profileService struct {
	profileRepo repository.ProfileRepository
	sink        EventSink
	override    OverrideFunc

	mu         sync.Mutex
	profiles   []*model.Profile
	loaded     bool
	charging   bool
	inVehicle  bool
	speeds     []float64
	active     *model.Profile
	deactTimer *time.Timer
	pendingID  string
	// deactGen invalidates deactivation callbacks that already fired but
	// have not yet acquired the lock when the schedule changes under them.
	deactGen uint64

	delayFn func(seconds int) time.Duration
}

func NewProfileService(profileRepo repository.ProfileRepository, sink EventSink) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		sink:        sink,
		delayFn: func(seconds int) time.Duration {
			return time.Duration(seconds) * time.Second
		},
	}
}

func (s *profileService) SetOverride(fn OverrideFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = fn
}

func (s *profileService) Evaluate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluateLocked()
}

func (s *profileService) OnFix(fix *model.Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fix.Speed != nil {
		s.speeds = append(s.speeds, *fix.Speed)
		if len(s.speeds) > speedWindowSize {
			s.speeds = s.speeds[len(s.speeds)-speedWindowSize:]
		}
	}
	s.evaluateLocked()
}

func (s *profileService) SetCharging(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charging = on
	s.evaluateLocked()
}

func (s *profileService) SetInVehicle(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inVehicle = on
	s.evaluateLocked()
}

func (s *profileService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

func (s *profileService) ActiveProfileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.Name
}

// Reset clears all evaluator state without emitting events or reverting
// parameters; used when tracking stops.
func (s *profileService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelDeactivationLocked()
	s.active = nil
	s.speeds = nil
	s.charging = false
	s.inVehicle = false
	s.loaded = false
}

func (s *profileService) evaluateLocked() {
	profiles := s.loadLocked()

	var match *model.Profile
	for _, p := range profiles {
		if s.matchesLocked(p) {
			match = p
			break
		}
	}

	if s.active == nil {
		if match != nil {
			s.activateLocked(match)
		}
		return
	}

	var current *model.Profile
	for _, p := range profiles {
		if p.ID == s.active.ID {
			current = p
			break
		}
	}

	if current == nil {
		// The active profile was disabled or deleted: revert immediately,
		// no hysteresis.
		s.deactivateLocked()
		if match != nil {
			s.activateLocked(match)
		}
		return
	}

	if match != nil && match.ID == s.active.ID {
		s.cancelDeactivationLocked()
		if !match.SameParameters(s.active) {
			// Edited while active: re-apply with the same identity.
			s.activateLocked(match)
		} else {
			s.active = current
		}
		return
	}

	if match != nil {
		// A different profile matches: switch without waiting out the
		// deactivation delay.
		s.cancelDeactivationLocked()
		s.activateLocked(match)
		return
	}

	// Still exists and enabled but no longer matches: schedule the
	// hysteresis revert unless one is already pending.
	if s.pendingID == current.ID {
		return
	}
	s.cancelDeactivationLocked()
	if current.DeactivationDelayS <= 0 {
		s.deactivateLocked()
		return
	}
	s.pendingID = current.ID
	gen := s.deactGen
	s.deactTimer = time.AfterFunc(s.delayFn(current.DeactivationDelayS), func() {
		s.onDeactivationTimer(gen)
	})
}

func (s *profileService) onDeactivationTimer(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.deactGen || s.pendingID == "" || s.active == nil {
		return
	}
	s.deactTimer = nil
	s.deactivateLocked()
}

func (s *profileService) activateLocked(p *model.Profile) {
	s.pendingID = ""
	s.active = p
	if s.override != nil {
		s.override(p)
	}
	s.sink.ProfileSwitched(p.Name)
}

func (s *profileService) deactivateLocked() {
	s.cancelDeactivationLocked()
	s.active = nil
	if s.override != nil {
		s.override(nil)
	}
	s.sink.ProfileSwitched("")
}

func (s *profileService) cancelDeactivationLocked() {
	if s.deactTimer != nil {
		s.deactTimer.Stop()
		s.deactTimer = nil
	}
	s.pendingID = ""
	s.deactGen++
}

func (s *profileService) matchesLocked(p *model.Profile) bool {
	switch p.ConditionType {
	case model.ConditionCharging:
		return s.charging
	case model.ConditionInVehicle:
		return s.inVehicle
	case model.ConditionSpeedAbove:
		avg, ok := s.averageSpeedLocked()
		return ok && avg > p.SpeedThreshold
	case model.ConditionSpeedBelow:
		avg, ok := s.averageSpeedLocked()
		return ok && avg < p.SpeedThreshold
	}
	return false
}

func (s *profileService) averageSpeedLocked() (float64, bool) {
	if len(s.speeds) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range s.speeds {
		sum += v
	}
	return sum / float64(len(s.speeds)), true
}

func (s *profileService) loadLocked() []*model.Profile {
	if !s.loaded {
		profiles, err := s.profileRepo.FindEnabled()
		if err != nil {
			log.Printf("profiles: load failed, keeping previous set: %v", err)
			return s.profiles
		}
		s.profiles = profiles
		s.loaded = true
	}
	return s.profiles
}
