package cache

import (
	"context"
	"time"

	"locagent/internal/core/model"
)

const (
	keyLastFix    = "agent:last_fix"
	keyStatus     = "agent:status"
	keyActiveZone = "agent:active_zone"
	keyProfile    = "agent:active_profile"

	mirrorTimeout = 2 * time.Second
)

// StatusSink mirrors tracking events into Redis so external readers can
// poll live agent status without touching the core. All writes are
// best-effort; with caching disabled they are no-ops.
type StatusSink struct{}

func NewStatusSink() *StatusSink {
	return &StatusSink{}
}

func (s *StatusSink) FixAccepted(fix *model.Fix) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	Set(ctx, keyLastFix, fix, 0)
	Set(ctx, keyStatus, "active", 0)
}

func (s *StatusSink) ZoneEntered(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	Set(ctx, keyActiveZone, name, 0)
	Set(ctx, keyStatus, "paused", 0)
}

func (s *StatusSink) ZoneExited(string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	Delete(ctx, keyActiveZone)
	Set(ctx, keyStatus, "active", 0)
}

func (s *StatusSink) ProfileSwitched(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if name == "" {
		Delete(ctx, keyProfile)
		return
	}
	Set(ctx, keyProfile, name, 0)
}

func (s *StatusSink) TrackingStopped(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	Set(ctx, keyStatus, "stopped: "+reason, 0)
}

// MirroredStatus is the read-back view of the Redis mirror. Empty fields
// mean the cache is disabled or the key was never written.
type MirroredStatus struct {
	Status  string     `json:"status,omitempty"`
	Zone    string     `json:"zone,omitempty"`
	Profile string     `json:"profile,omitempty"`
	LastFix *model.Fix `json:"lastFix,omitempty"`
}

// ReadMirror fetches the mirrored agent status. Reads are best-effort like
// the writes; missing keys simply leave their field empty.
func ReadMirror(ctx context.Context) MirroredStatus {
	var m MirroredStatus
	Get(ctx, keyStatus, &m.Status)
	Get(ctx, keyActiveZone, &m.Zone)
	Get(ctx, keyProfile, &m.Profile)

	var fix model.Fix
	if err := Get(ctx, keyLastFix, &fix); err == nil {
		m.LastFix = &fix
	}
	return m
}
