package main

import (
	"log"
	"net/http"

	"locagent/internal/api/handler"
	"locagent/internal/api/middleware"
	"locagent/internal/api/router"
	"locagent/internal/api/ws"
	"locagent/internal/cache"
	"locagent/internal/config"
	"locagent/internal/core/repository"
	"locagent/internal/core/service"
	"locagent/internal/location"
	"locagent/internal/netsend"
)

func main() {
	cfg := config.LoadConfig()

	// Repositories: MongoDB when configured, in-memory otherwise.
	var (
		settingsRepo repository.SettingsRepository
		fixRepo      repository.FixRepository
		queueRepo    repository.QueueRepository
		zoneRepo     repository.ZoneRepository
		profileRepo  repository.ProfileRepository
	)
	if cfg.MongoURI != "" {
		db, err := config.ConnectMongoDB(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		settingsRepo = repository.NewMongoSettingsRepository(db)
		fixRepo = repository.NewMongoFixRepository(db)
		queueRepo = repository.NewMongoQueueRepository(db)
		zoneRepo = repository.NewMongoZoneRepository(db)
		profileRepo = repository.NewMongoProfileRepository(db)
	} else {
		log.Println("MONGODB_URI not set, using in-memory store")
		settingsRepo = repository.NewInMemorySettingsRepository()
		fixRepo = repository.NewInMemoryFixRepository()
		queueRepo = repository.NewInMemoryQueueRepository()
		zoneRepo = repository.NewInMemoryZoneRepository()
		profileRepo = repository.NewInMemoryProfileRepository()
	}

	cache.Initialize(cfg.RedisURL)
	defer cache.Close()

	// Event fan-out: process log, websocket subscribers, Redis mirror.
	hub := ws.NewHub()
	go hub.Run()
	sink := service.MultiEventSink{
		service.LogEventSink{},
		ws.NewEventSink(hub),
		cache.NewStatusSink(),
	}

	provider := location.NewPushProvider()
	sender := netsend.NewHTTPSender()

	geofence := service.NewGeofenceService(zoneRepo)
	profiles := service.NewProfileService(profileRepo, sink)
	syncEngine := service.NewSyncService(queueRepo, sender)
	tracking := service.NewTrackingService(
		provider, geofence, profiles, syncEngine, fixRepo, settingsRepo, sink)

	r := router.NewRouter(router.Deps{
		Tracking: handler.NewTrackingHandler(tracking),
		Fixes:    handler.NewFixHandler(provider, profiles, syncEngine),
		Zones:    handler.NewZoneHandler(zoneRepo, geofence),
		Profiles: handler.NewProfileHandler(profileRepo, profiles),
		Status:   handler.NewStatusHandler(),
		Hub:      hub,
		Auth:     middleware.NewAuthMiddleware(cfg.JWTSecret),
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Agent listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
