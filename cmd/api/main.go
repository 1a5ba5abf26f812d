package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/fieldsense/occupancy-service/internal/auth"
	"github.com/fieldsense/occupancy-service/internal/bus"
	"github.com/fieldsense/occupancy-service/internal/config"
	"github.com/fieldsense/occupancy-service/internal/httpserver"
	"github.com/fieldsense/occupancy-service/internal/ingest"
	"github.com/fieldsense/occupancy-service/internal/logging"
	"github.com/fieldsense/occupancy-service/internal/occupancy"
	"github.com/fieldsense/occupancy-service/internal/store"
)

// main boots the service: config → logger → DB → schema → hours config →
// gateway/engine → HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Connect to durable storage and fail fast if it is unreachable.
	db, err := store.NewPostgresStore(context.Background(), cfg.DBURL)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build`
	// is enough.
	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}

	// Business-hours schedule, hot-reloaded on file change.
	hours, err := config.NewHoursLoader(cfg.HoursPath, logger)
	if err != nil {
		logger.Fatal("hours config", zap.Error(err))
	}
	stopWatch, err := hours.Watch()
	if err != nil {
		logger.Fatal("hours watch", zap.Error(err))
	}
	defer stopWatch()

	// Optional downstream event feed.
	var publisher ingest.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		p := bus.NewEventPublisher(cfg.KafkaBrokers, cfg.EventsTopic, logger)
		defer p.Close()
		publisher = p
	}

	gate := auth.NewStaticTokenGate(cfg.AuthTokens)
	gateway := ingest.NewGateway(gate, db, publisher, logger)
	engine := occupancy.NewEngine(db, hours)

	router := httpserver.NewRouter(gate, gateway, engine, db, logger)

	logger.Info("server started", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
