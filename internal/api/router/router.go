package router

import (
	"encoding/json"
	"net/http"

	"locagent/internal/api/handler"
	"locagent/internal/api/middleware"
	"locagent/internal/api/ws"
)

type Deps struct {
	Tracking *handler.TrackingHandler
	Fixes    *handler.FixHandler
	Zones    *handler.ZoneHandler
	Profiles *handler.ProfileHandler
	Status   *handler.StatusHandler
	Hub      *ws.Hub
	Auth     *middleware.AuthMiddleware
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	withMiddleware := func(h http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(
				deps.Auth.Authenticate(h),
			),
		)
	}

	post := func(fn http.HandlerFunc) http.Handler {
		return withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			fn(w, r)
		}))
	}
	get := func(fn http.HandlerFunc) http.Handler {
		return withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			fn(w, r)
		}))
	}

	mux.Handle("/health", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})))

	// Tracking commands
	mux.Handle("/api/tracking/start", post(deps.Tracking.Start))
	mux.Handle("/api/tracking/stop", post(deps.Tracking.Stop))
	mux.Handle("/api/tracking/status", get(deps.Tracking.Status))
	mux.Handle("/api/tracking/flush", post(deps.Tracking.Flush))
	mux.Handle("/api/tracking/recheck-zone", post(deps.Tracking.RecheckZone))
	mux.Handle("/api/tracking/exit-zone", post(deps.Tracking.ExitZone))
	mux.Handle("/api/tracking/recheck-profiles", post(deps.Tracking.RecheckProfiles))
	mux.Handle("/api/tracking/reconfigure", post(deps.Tracking.Reconfigure))

	// Redis-mirrored status for external readers
	mux.Handle("/api/status/mirror", get(deps.Status.Mirror))

	// Fix ingest + device condition signals
	mux.Handle("/api/fixes", post(deps.Fixes.Offer))
	mux.Handle("/api/conditions", post(deps.Fixes.Conditions))

	// Zone CRUD
	mux.Handle("/api/zones", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.Zones.Create(w, r)
		case http.MethodGet:
			deps.Zones.List(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/zones/update", post(deps.Zones.Update))
	mux.Handle("/api/zones/delete", post(deps.Zones.Delete))

	// Profile CRUD
	mux.Handle("/api/profiles", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.Profiles.Create(w, r)
		case http.MethodGet:
			deps.Profiles.List(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/profiles/update", post(deps.Profiles.Update))
	mux.Handle("/api/profiles/delete", post(deps.Profiles.Delete))

	// Event stream
	mux.Handle("/ws/events", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, w, r)
	})))

	return mux
}
