package http

import (
	"time"

	"github.com/adreach/backend/internal/config"
	"github.com/adreach/backend/internal/http/handlers"
	"github.com/adreach/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	registry *prometheus.Registry,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	metaHandler *handlers.MetaHandler,
	composerHandler *handlers.ComposerHandler,
	campaignHandler *handlers.CampaignHandler,
	templateHandler *handlers.TemplateHandler,
	creditHandler *handlers.CreditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/login", authHandler.Login)

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Meta (public, no auth required)
	api.Get("/meta/industries", metaHandler.GetIndustries)
	api.Get("/meta/age-brackets", metaHandler.GetAgeBrackets)
	api.Get("/meta/card-amounts", metaHandler.GetCardAmounts)
	api.Get("/meta/cities", metaHandler.GetCities)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)
	protected.Put("/me/industry", userHandler.SetIndustry)

	// Composer session
	protected.Post("/composer/session", composerHandler.StartSession)
	protected.Get("/composer/session", composerHandler.ResumeSession)
	protected.Post("/composer/messages", composerHandler.PostMessage)
	protected.Get("/composer/draft", composerHandler.GetDraft)
	protected.Patch("/composer/draft", composerHandler.PatchDraft)
	protected.Get("/composer/estimate", composerHandler.Estimate)
	protected.Post("/composer/submit", composerHandler.Submit)
	protected.Post("/composer/payment-completed", composerHandler.PaymentCompleted)
	protected.Post("/composer/link-preview", composerHandler.LinkPreview)

	// Campaigns
	protected.Get("/campaigns", campaignHandler.ListCampaigns)
	protected.Get("/campaigns/:id", campaignHandler.GetCampaign)
	protected.Post("/campaigns/:id/cancel", campaignHandler.CancelCampaign)

	// Templates
	protected.Post("/templates", templateHandler.SaveFromSession)
	protected.Get("/templates", templateHandler.ListTemplates)
	protected.Get("/templates/:id", templateHandler.GetTemplate)
	protected.Put("/templates/:id", templateHandler.RenameTemplate)
	protected.Delete("/templates/:id", templateHandler.DeleteTemplate)

	// Credits
	protected.Get("/credits/balance", creditHandler.GetBalance)
	protected.Post("/credits/top-up", creditHandler.TopUp)
	protected.Get("/credits/transactions", creditHandler.ListTransactions)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}

func corsOrigins(cfg *config.Config) string {
	if len(cfg.CORSOrigins) == 0 {
		return "*"
	}
	out := ""
	for i, o := range cfg.CORSOrigins {
		if i > 0 {
			out += ", "
		}
		out += o
	}
	return out
}
