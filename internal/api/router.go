package routes

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	v1 "github.com/neutralface-io/nfai-web/internal/api/v1"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/config"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// NewRoutes installs the middleware chain, /health and /api/v1 on app.
// Once ctx is done the closers run, then the logger is closed.
func NewRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, g *gateway.Gateway, log *logger.Logger, closers ...func()) {
	headers := []string{
		fiber.HeaderOrigin,
		fiber.HeaderContentType,
		fiber.HeaderAccept,
		fiber.HeaderXRequestID,
		auth.WalletHeader,
	}
	rateMax := cfg.RateLimitMax
	if rateMax <= 0 {
		rateMax = 120
	}

	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins: cfg.AllowedOrigins,
				AllowHeaders: strings.Join(headers, ", "),
				AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestSpeed,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        rateMax,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
				LimitReached: func(c *fiber.Ctx) error {
					return utils.SendError(c, utils.NewError(fiber.StatusTooManyRequests, "Too many requests"))
				},
			},
		),
	)
	app.Use(log.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := g.Ping(c.UserContext()); err != nil {
			return utils.SendError(c, err)
		}
		return utils.Success(c).WithMessage("ok").Send()
	})

	api := app.Group("/api/v1", auth.Identify(auth.Options{Logger: log}))
	v1.New(g, log).Register(api)

	go func() {
		<-ctx.Done()
		for _, closeFn := range closers {
			closeFn()
		}
		log.Close()
	}()
}
