package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"locagent/internal/cache"
)

// StatusHandler serves the Redis-mirrored agent status, letting external
// readers poll the last known state without touching the tracking core.
type StatusHandler struct{}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

func (h *StatusHandler) Mirror(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cache.ReadMirror(ctx))
}
