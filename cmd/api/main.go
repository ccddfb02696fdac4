package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adreach/backend/internal/ai"
	"github.com/adreach/backend/internal/composer"
	"github.com/adreach/backend/internal/config"
	"github.com/adreach/backend/internal/db"
	"github.com/adreach/backend/internal/events"
	apphttp "github.com/adreach/backend/internal/http"
	"github.com/adreach/backend/internal/http/handlers"
	"github.com/adreach/backend/internal/linkpreview"
	"github.com/adreach/backend/internal/observability"
	"github.com/adreach/backend/internal/pricing"
	"github.com/adreach/backend/internal/repositories"
	"github.com/adreach/backend/internal/services"
	"github.com/adreach/backend/internal/snapshot"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	observability.Register(registry)

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	creditRepo := repositories.NewCreditRepo(pool)
	templateRepo := repositories.NewTemplateRepo(pool)
	industryRepo := repositories.NewIndustryRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Composer
	store := snapshot.NewRedisStore(rdb, cfg.SnapshotTTL, cfg.DraftTTL, log)
	manager := composer.NewManager(store, cfg.SaveDebounceFull, cfg.SaveDebounceLight, log)
	aiClient := ai.NewClient(cfg.AIUpstreamURL, cfg.AIHeaderTimeout, log)
	previews := linkpreview.NewFetcher(cfg.PreviewFetchTimeoutMS, cfg.PreviewFetchMaxRetries, log)

	steps := pricing.Steps{
		Base:          cfg.PriceBase,
		Location:      cfg.PricePerFilter,
		Gender:        cfg.PricePerFilter,
		Age:           cfg.PricePerFilter,
		Amount:        cfg.PricePerFilter,
		Industry:      cfg.PricePerFilter,
		CarouselFirst: cfg.PriceCarouselFirst,
	}

	// Services
	campaignService := services.NewCampaignService(campaignRepo, creditRepo, steps, publisher, log)
	templateService := services.NewTemplateService(templateRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	metaHandler := handlers.NewMetaHandler(industryRepo, log)
	composerHandler := handlers.NewComposerHandler(manager, aiClient, store, campaignService, previews, userRepo, publisher, cfg, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, log)
	templateHandler := handlers.NewTemplateHandler(templateService, manager, log)
	creditHandler := handlers.NewCreditHandler(creditRepo, publisher, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Evict idle composer sessions; snapshots stay for resume.
	go func() {
		ticker := time.NewTicker(cfg.SnapshotSweepWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := manager.SweepIdle(ctx, cfg.SnapshotSweepWindow); n > 0 {
					observability.ActiveSessions.Sub(float64(n))
					log.Info("evicted idle sessions", zap.Int("count", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, registry, authHandler, userHandler, metaHandler, composerHandler, campaignHandler, templateHandler, creditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
