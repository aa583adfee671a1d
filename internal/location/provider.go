// Package location defines the positioning interface the tracking core
// consumes and a push-fed implementation for hosts that deliver fixes
// over the ingest endpoint.
package location

import (
	"locagent/internal/core/model"
)

// Callback receives accepted fixes from an active subscription.
type Callback func(fix *model.Fix)

// Provider supplies fixes via a push subscription and an on-demand
// last-known query.
type Provider interface {
	RequestUpdates(intervalMS int, minDistanceM float64, cb Callback) error
	GetLastLocation() (*model.Fix, error)
	RemoveUpdates()
}
