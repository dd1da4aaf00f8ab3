package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	routes "github.com/neutralface-io/nfai-web/internal/api"
	"github.com/neutralface-io/nfai-web/internal/blob"
	"github.com/neutralface-io/nfai-web/internal/config"
	"github.com/neutralface-io/nfai-web/internal/db"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/internal/search"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	storage "github.com/neutralface-io/nfai-web/pkg/redis"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	log, err := logger.NewLogger(ctx,
		logger.WithAppName(cfg.AppName),
		logger.WithOutputDir(cfg.LogDir),
		logger.WithMaxFileSize(cfg.LogMaxSizeMB),
		logger.WithMaxDays(cfg.LogMaxDays),
	)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	gormDB, err := db.NewDB(
		ctx,
		cfg.DatabaseURL,
		models.RegisterModels(),
		db.WithLogger(log),
		db.WithPool(25, 10, 30*time.Minute),
	)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		log.Close()
		panic("DB init failed")
	}

	var (
		opts    []gateway.Option
		closers = []func(){func() { db.CloseDB(log) }}
	)

	if cfg.RedisAddr != "" {
		redisClient, err := storage.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn(ctx).WithFields("error", err).Logs("Redis unavailable, running without cache")
		} else {
			opts = append(opts, gateway.WithCache(redisClient))
			closers = append(closers, func() { redisClient.Close(log) })
		}
	}

	switch cfg.StorageDriver {
	case "s3":
		store, err := blob.NewS3(ctx, blob.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKey,
			SecretAccessKey: cfg.AWSSecretKey,
			Bucket:          cfg.S3Bucket,
			BucketParam:     cfg.S3BucketParam,
			KMSKeyID:        cfg.S3KMSKeyID,
		})
		if err != nil {
			log.Warn(ctx).WithFields("error", err).Logs("S3 unavailable, uploads disabled")
		} else {
			opts = append(opts, gateway.WithBlobStore(store))
		}
	case "gcs":
		store, err := blob.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			log.Warn(ctx).WithFields("error", err).Logs("GCS unavailable, uploads disabled")
		} else {
			opts = append(opts, gateway.WithBlobStore(store))
			closers = append(closers, func() { store.Close() })
		}
	default:
		log.Warn(ctx).WithFields("driver", cfg.StorageDriver).Logs("Unknown storage driver, uploads disabled")
	}

	if cfg.MeiliHost != "" {
		idx, err := search.NewIndexer(cfg.MeiliHost, cfg.MeiliAPIKey)
		if err != nil {
			log.Warn(ctx).WithFields("error", err).Logs("Search index unavailable, using in-process search")
		} else {
			opts = append(opts, gateway.WithSearch(idx))
		}
	}

	if email := cfg.Email(); email.Enabled() {
		opts = append(opts, gateway.WithMailer(utils.NewMailer(email, log)))
	}

	g := gateway.New(gormDB, log, opts...)

	// rows written while the index was down or before it existed
	go func() {
		n, err := g.Reindex(ctx)
		if err != nil {
			log.Warn(ctx).WithFields("indexed", n, "error", err).Logs("Search reindex incomplete")
			return
		}
		if n > 0 {
			log.Info(ctx).WithFields("indexed", n).Logs("Search index backfilled")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: utils.HandleError,
		BodyLimit:    512 * 1024 * 1024,
	})
	routes.NewRoutes(ctx, app, cfg, g, log, closers...)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error(shutdownCtx).WithFields("error", err).Logs("Server shutdown failed")
		}
	}()

	log.Info(ctx).WithFields("addr", cfg.ServerAddr).Logs("Server starting")
	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Error(ctx).WithFields("error", err).Logs("Server stopped")
	}
}
