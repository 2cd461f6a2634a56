package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ticket-booking/cmd"
	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/memstore"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/scheduler"
	"ticket-booking/internal/usecase"
	"ticket-booking/internal/wire"
	"ticket-booking/pkg/cache"
	"ticket-booking/pkg/clock"
	"ticket-booking/pkg/database"
	"ticket-booking/pkg/events"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.Store.Driver),
		zap.String("events", config.Events.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	if config.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	publisher, err := newPublisher(config.Events, logger)
	if err != nil {
		logger.Fatal("Failed to connect event publisher", zap.Error(err))
	}
	defer publisher.Close()

	redisClient := cache.NewRedisClient(ctx, config.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Wire all dependencies
	app := wire.Wiring(repos, usecase.Infra{
		Cache:     cache.NewCategoryCache(redisClient, config.Redis.TTL, logger),
		Publisher: publisher,
	}, config, logger)

	sweeper := scheduler.New(app.Service.Booking, config.Booking.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})
	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("Application stopped")
}

// openStore returns the repository set for the configured driver and a
// function releasing its resources.
func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	switch config.Store.Driver {
	case "memory":
		store := memstore.New(clock.Real())
		eventID := seedDemo(store)
		logger.Warn("Using in-memory store, data is lost on restart",
			zap.String("demo_event_id", eventID.String()),
		)
		return store.Repository(), func() {}, nil

	case "postgres", "":
		if config.Database.AutoMigrate {
			if err := database.Migrate(ctx, config.Database); err != nil {
				return nil, nil, fmt.Errorf("migrate database: %w", err)
			}
			logger.Info("Database migrations applied")
		}

		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connected successfully")
		return repository.NewRepository(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
}

func newPublisher(config utils.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	switch config.Driver {
	case "rabbitmq":
		return events.NewRabbitMQ(config.AMQPURL, logger)
	case "kafka":
		return events.NewKafka(config.Brokers, config.Topic, logger)
	case "none", "":
		return events.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", config.Driver)
	}
}

// seedDemo lays out a small two-category hall for local runs.
func seedDemo(store *memstore.Store) uuid.UUID {
	eventID := uuid.New()

	vip := entity.SeatCategory{ID: uuid.New(), EventID: eventID, Name: "VIP", Price: 150000, Color: "#d4af37", IsAvailable: true}
	regular := entity.SeatCategory{ID: uuid.New(), EventID: eventID, Name: "Regular", Price: 75000, Color: "#4a90d9", IsAvailable: true}
	store.AddCategory(vip)
	store.AddCategory(regular)
	store.AddLayout(eventID, vip.ID, []string{"A", "B"}, 10)
	store.AddLayout(eventID, regular.ID, []string{"C", "D", "E", "F"}, 12)

	return eventID
}
