package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	v1 "github.com/neutralface-io/nfai-web/internal/api/v1"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/db"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/internal/view"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var (
	_ view.LikeRemote       = (*Client)(nil)
	_ view.DatasetSource    = (*Client)(nil)
	_ view.CollectionSource = (*Client)(nil)
)

func wallet(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

var (
	alice = wallet(1)
	bob   = wallet(2)
)

// newServer runs the real API over an in-memory database and counts the
// requests that reach it.
func newServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	ctx := context.Background()

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

	app := fiber.New(fiber.Config{ErrorHandler: utils.HandleError})
	app.Use(logger.SetupLogger(log))
	api := app.Group("/api/v1", auth.Identify(auth.Options{Logger: log}))
	v1.New(gateway.New(gdb, log), log).Register(api)

	var hits int64
	handler := adaptor.FiberApp(app)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLocalValidationSkipsRequest(t *testing.T) {
	srv, hits := newServer(t)
	ctx := context.Background()

	anon := New(srv.URL)
	_, err := anon.CreateDataset(ctx, models.DatasetInput{Name: "Weather", Description: "Hourly"})
	assert.Equal(t, http.StatusUnauthorized, utils.StatusOf(err))

	c := New(srv.URL, WithWallet(alice))
	_, err = c.CreateDataset(ctx, models.DatasetInput{Name: "   ", Description: "Hourly"})
	var appErr *utils.CustomError
	require.True(t, utils.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Equal(t, "Dataset name is required", appErr.Message)

	_, err = c.CreateDataset(ctx, models.DatasetInput{Name: "Weather", Description: "Hourly", License: "WTFPL"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = c.CreateCollection(ctx, models.CollectionInput{Name: ""})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = c.UpdateProfile(ctx, models.ProfileInput{Username: "ab"})
	require.True(t, utils.As(err, &appErr))
	assert.Equal(t, "Username must be at least 3 characters long", appErr.Message)

	_, err = c.ShareCollection(ctx, uuid.New(), "nope")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	liked, err := anon.LikedSet(ctx)
	require.NoError(t, err)
	assert.Empty(t, liked)

	assert.Zero(t, atomic.LoadInt64(hits))
}

func TestDatasetFlow(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	owner := New(srv.URL, WithWallet(alice))
	fan := New(srv.URL, WithWallet(bob))

	d, err := owner.CreateDataset(ctx, models.DatasetInput{Name: " Weather ", Description: "Hourly readings", Topics: []string{"climate"}})
	require.NoError(t, err)
	assert.Equal(t, "Weather", d.Name)

	state, err := fan.ToggleLike(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: true, Likes: 1}, state)

	items, err := fan.Browse(ctx, listing.Filter{Topic: "climate"}, listing.SortPopular)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Liked)

	_, err = fan.UpdateTopics(ctx, d.ID, []string{"stolen"})
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))

	d, err = owner.UpdateTopics(ctx, d.ID, []string{" Climate ", "weather", "climate"})
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"climate", "weather"}, d.Topics)

	topics, err := fan.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 2)

	found, err := fan.SearchDatasets(ctx, "hourly", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	private := models.VisibilityPrivate
	_, err = owner.UpdateDataset(ctx, d.ID, models.DatasetPatch{Visibility: &private})
	require.NoError(t, err)
	_, err = fan.GetDataset(ctx, d.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))

	require.NoError(t, owner.DeleteDataset(ctx, d.ID))
	_, err = owner.GetDataset(ctx, d.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestUploadWithoutStore(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := New(srv.URL, WithWallet(alice))

	d, err := c.CreateDataset(ctx, models.DatasetInput{Name: "Weather", Description: "Hourly"})
	require.NoError(t, err)

	_, err = c.UploadDatasetFile(ctx, d.ID, "readings.csv", strings.NewReader("a,b\n"))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, utils.StatusOf(err))
}

func TestViewsOverClient(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	owner := New(srv.URL, WithWallet(alice))

	d, err := owner.CreateDataset(ctx, models.DatasetInput{Name: "Weather", Description: "Hourly"})
	require.NoError(t, err)
	col, err := owner.CreateCollection(ctx, models.CollectionInput{Name: "Mine"})
	require.NoError(t, err)

	toggle := view.NewLikeToggle(owner, owner.Wallet, d.ID, models.LikeState{})
	outcome, err := toggle.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, view.Applied, outcome)
	assert.Equal(t, models.LikeState{Liked: true, Likes: 1}, toggle.State())

	list := view.NewDatasetListView(owner)
	_, err = list.Reload(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Datasets(), 1)

	cv := view.NewCollectionView(owner, col.ID)
	added, err := cv.Toggle(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, cv.Collection().Datasets, 1)

	added, err = cv.Toggle(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, cv.Collection().Datasets)

	owner.Connect("")
	outcome, err = toggle.Toggle(ctx)
	assert.ErrorIs(t, err, view.ErrWalletRequired)
	assert.Equal(t, view.Rejected, outcome)
}

func TestProfileAndSharing(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	owner := New(srv.URL, WithWallet(alice))
	friend := New(srv.URL, WithWallet(bob))

	p, err := owner.UpdateProfile(ctx, models.ProfileInput{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", *p.Username)

	p, err = friend.GetProfile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", *p.Username)

	col, err := owner.CreateCollection(ctx, models.CollectionInput{Name: "Mine"})
	require.NoError(t, err)
	_, err = friend.GetCollection(ctx, col.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))

	_, err = owner.ShareCollection(ctx, col.ID, bob)
	require.NoError(t, err)

	list, err := friend.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, col.ID, list[0].ID)

	renamed := "Ours"
	_, err = friend.UpdateCollection(ctx, col.ID, models.CollectionPatch{Name: &renamed})
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))
	require.NoError(t, owner.DeleteCollection(ctx, col.ID))
}
