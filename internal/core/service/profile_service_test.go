package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locagent/internal/core/model"
	"locagent/internal/core/repository"
)

type overrideRecorder struct {
	mu    sync.Mutex
	calls []*model.Profile
}

func (o *overrideRecorder) apply(p *model.Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, p)
}

func (o *overrideRecorder) last() (*model.Profile, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.calls) == 0 {
		return nil, 0
	}
	return o.calls[len(o.calls)-1], len(o.calls)
}

func newProfileFixture(t *testing.T) (repository.ProfileRepository, *profileService, *overrideRecorder) {
	t.Helper()
	repo := repository.NewInMemoryProfileRepository()
	svc := NewProfileService(repo, NopEventSink{}).(*profileService)
	// Compress hysteresis delays so tests wait milliseconds, not seconds.
	svc.delayFn = func(seconds int) time.Duration {
		return time.Duration(seconds) * 20 * time.Millisecond
	}
	rec := &overrideRecorder{}
	svc.SetOverride(rec.apply)
	return repo, svc, rec
}

func chargingProfile(name string, priority int) *model.Profile {
	p := model.NewProfile(name, model.ConditionCharging, priority)
	p.IntervalMS = 5000
	p.SyncIntervalS = 60
	return p
}

func speedAboveProfile(name string, priority int, threshold float64) *model.Profile {
	p := model.NewProfile(name, model.ConditionSpeedAbove, priority)
	p.SpeedThreshold = threshold
	p.IntervalMS = 2000
	return p
}

func fixWithSpeed(speed float64) *model.Fix {
	f := model.NewFix(48.1, 11.5, 5, time.Now().Unix())
	f.Speed = &speed
	return f
}

func TestProfileHighestPriorityWins(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	require.NoError(t, repo.Create(chargingProfile("dock", 10)))
	require.NoError(t, repo.Create(speedAboveProfile("driving", 20, 13.89)))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	// Both conditions now hold; the higher priority profile takes over.
	svc.OnFix(fixWithSpeed(20))
	assert.Equal(t, "driving", svc.ActiveProfileName())
}

func TestProfileSpeedAverageOverWindow(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	require.NoError(t, repo.Create(speedAboveProfile("driving", 10, 13.89)))

	// One fast outlier among slow samples keeps the average below threshold.
	svc.OnFix(fixWithSpeed(2))
	svc.OnFix(fixWithSpeed(3))
	svc.OnFix(fixWithSpeed(40))
	svc.OnFix(fixWithSpeed(2))
	svc.OnFix(fixWithSpeed(3))
	require.Equal(t, "", svc.ActiveProfileName())

	// Sustained speed pushes the rolling average over.
	for i := 0; i < 5; i++ {
		svc.OnFix(fixWithSpeed(25))
	}
	assert.Equal(t, "driving", svc.ActiveProfileName())
}

func TestProfileHysteresisDelaysDeactivation(t *testing.T) {
	repo, svc, rec := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 2
	require.NoError(t, repo.Create(dock))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	svc.SetCharging(false)
	// The revert is scheduled, not immediate.
	assert.Equal(t, "dock", svc.ActiveProfileName())

	require.Eventually(t, func() bool {
		return svc.ActiveProfileName() == ""
	}, time.Second, 5*time.Millisecond)

	p, _ := rec.last()
	assert.Nil(t, p)
}

func TestProfileHysteresisCancelledWhenConditionReturns(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 2
	require.NoError(t, repo.Create(dock))

	svc.SetCharging(true)
	svc.SetCharging(false)
	svc.SetCharging(true)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "dock", svc.ActiveProfileName())
}

func TestProfileSwitchCancelsPendingDeactivation(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 2
	require.NoError(t, repo.Create(dock))
	require.NoError(t, repo.Create(speedAboveProfile("driving", 20, 10)))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	svc.SetCharging(false)
	svc.OnFix(fixWithSpeed(20))
	assert.Equal(t, "driving", svc.ActiveProfileName())

	// The stale dock timer must not fire into the new activation.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "driving", svc.ActiveProfileName())
}

func TestProfileStaleDeactivationTimerIgnored(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 2
	require.NoError(t, repo.Create(dock))

	// Keep the real timers from firing; the callbacks are driven by hand.
	svc.delayFn = func(int) time.Duration { return time.Hour }

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	svc.SetCharging(false)
	svc.mu.Lock()
	stale := svc.deactGen
	svc.mu.Unlock()

	// Condition returns and drops again: the first window is dead, a new
	// one is pending.
	svc.SetCharging(true)
	svc.SetCharging(false)

	// The superseded callback must not cut the new window short.
	svc.onDeactivationTimer(stale)
	assert.Equal(t, "dock", svc.ActiveProfileName())

	// The live window still deactivates when its own timer fires.
	svc.mu.Lock()
	current := svc.deactGen
	svc.mu.Unlock()
	svc.onDeactivationTimer(current)
	assert.Equal(t, "", svc.ActiveProfileName())
}

func TestProfileDeletedRevertsImmediately(t *testing.T) {
	repo, svc, rec := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 30
	require.NoError(t, repo.Create(dock))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	require.NoError(t, repo.Delete(dock.ID))
	svc.Invalidate()
	svc.Evaluate()

	// No hysteresis for a deleted profile.
	assert.Equal(t, "", svc.ActiveProfileName())
	p, _ := rec.last()
	assert.Nil(t, p)
}

func TestProfileDisabledRevertsImmediately(t *testing.T) {
	repo, svc, _ := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	dock.DeactivationDelayS = 30
	require.NoError(t, repo.Create(dock))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())

	dock.Enabled = false
	require.NoError(t, repo.Update(dock))
	svc.Invalidate()
	svc.Evaluate()

	assert.Equal(t, "", svc.ActiveProfileName())
}

func TestProfileEditReappliesParameters(t *testing.T) {
	repo, svc, rec := newProfileFixture(t)
	dock := chargingProfile("dock", 10)
	require.NoError(t, repo.Create(dock))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())
	_, callsBefore := rec.last()

	dock.IntervalMS = 1000
	require.NoError(t, repo.Update(dock))
	svc.Invalidate()
	svc.Evaluate()

	assert.Equal(t, "dock", svc.ActiveProfileName())
	p, calls := rec.last()
	require.NotNil(t, p)
	assert.Equal(t, 1000, p.IntervalMS)
	assert.Equal(t, callsBefore+1, calls)
}

func TestProfileResetClearsStateSilently(t *testing.T) {
	repo, svc, rec := newProfileFixture(t)
	require.NoError(t, repo.Create(chargingProfile("dock", 10)))

	svc.SetCharging(true)
	require.Equal(t, "dock", svc.ActiveProfileName())
	_, callsBefore := rec.last()

	svc.Reset()

	assert.Equal(t, "", svc.ActiveProfileName())
	_, callsAfter := rec.last()
	// Reset does not invoke the override; tracking is stopping anyway.
	assert.Equal(t, callsBefore, callsAfter)
}
