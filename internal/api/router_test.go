package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/config"
	"github.com/neutralface-io/nfai-web/internal/db"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := db.Open(ctx, sqlite.Open(dsn), models.RegisterModels(), db.Silent(), db.WithPool(1, 1, 0))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log, err := logger.NewLogger(ctx, logger.WithOutputDir(t.TempDir()), logger.WithAppName("test"), logger.WithStdout(false))
	require.NoError(t, err)
	t.Cleanup(log.Close)

	cfg := &config.Config{AllowedOrigins: "http://localhost:3000", RateLimitMax: 2}
	app := fiber.New(fiber.Config{ErrorHandler: utils.HandleError})
	NewRoutes(ctx, app, cfg, gateway.New(gdb, log), log)
	return app
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMalformedWalletRejected(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil)
	req.Header.Set(auth.WalletHeader, "not-a-wallet")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSAllowsWalletHeader(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/datasets", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(fiber.HeaderAccessControlRequestHeaders, auth.WalletHeader)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), auth.WalletHeader)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t)
	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
