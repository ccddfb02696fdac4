package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adreach/backend/internal/config"
	"github.com/adreach/backend/internal/db"
	"github.com/adreach/backend/internal/events"
	"github.com/adreach/backend/internal/models"
	"github.com/adreach/backend/internal/observability"
	"github.com/adreach/backend/internal/pricing"
	"github.com/adreach/backend/internal/repositories"
	"github.com/adreach/backend/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	registry := prometheus.NewRegistry()
	observability.Register(registry)

	// Repos and services
	campaignRepo := repositories.NewCampaignRepo(pool)
	creditRepo := repositories.NewCreditRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	steps := pricing.Steps{
		Base:          cfg.PriceBase,
		Location:      cfg.PricePerFilter,
		Gender:        cfg.PricePerFilter,
		Age:           cfg.PricePerFilter,
		Amount:        cfg.PricePerFilter,
		Industry:      cfg.PricePerFilter,
		CarouselFirst: cfg.PriceCarouselFirst,
	}
	campaignService := services.NewCampaignService(campaignRepo, creditRepo, steps, publisher, log)

	// Metrics endpoint
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.WorkerPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	log.Info("worker started", zap.String("metrics_port", cfg.WorkerPort))

	batchTicker := time.NewTicker(cfg.BatchSweepInterval)
	defer batchTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-batchTicker.C:
			runBatchSweep(ctx, campaignService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			_ = metricsSrv.Shutdown(context.Background())
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runBatchSweep moves due batch campaigns through sending to sent. Actual
// gateway dispatch is owned by the delivery platform; this side only drives
// the status machine once the scheduled window arrives.
func runBatchSweep(ctx context.Context, campaignService *services.CampaignService, log *zap.Logger) {
	due, err := campaignService.ListDueBatch(ctx)
	if err != nil {
		log.Error("failed to list due batch campaigns", zap.Error(err))
		return
	}

	for i := range due {
		c := &due[i]
		log.Info("dispatching batch campaign",
			zap.String("campaign_id", c.ID.String()),
			zap.String("status", c.Status),
		)

		if err := campaignService.Transition(ctx, c, models.CampaignStatusSending); err != nil {
			log.Error("failed to mark campaign sending", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			continue
		}
		if err := campaignService.Transition(ctx, c, models.CampaignStatusSent); err != nil {
			log.Error("failed to mark campaign sent", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		}
	}
}
