package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/db"
	"github.com/neutralface-io/nfai-web/internal/gateway"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func wallet(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

var (
	alice = wallet(1)
	bob   = wallet(2)
)

type envelope struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Error   *utils.CustomError `json:"error"`
}

type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memBlob) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memBlob) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlob) PublicURL(key string) string { return "https://files.test/" + key }

func newTestApp(t *testing.T, opts ...gateway.Option) *fiber.App {
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
	New(gateway.New(gdb, log, opts...), log).Register(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, wallet string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if wallet != "" {
		req.Header.Set(auth.WalletHeader, wallet)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func createDataset(t *testing.T, app *fiber.App, owner string, in models.DatasetInput) models.Dataset {
	t.Helper()
	status, env := do(t, app, http.MethodPost, "/api/v1/datasets", owner, in)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var d models.Dataset
	decode(t, env, &d)
	return d
}

func TestDatasetRoutes(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/datasets", "", models.DatasetInput{Name: "x", Description: "y"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.MsgConnectWallet, env.Message)

	status, _ = do(t, app, http.MethodGet, "/api/v1/datasets", "not-a-wallet", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	d := createDataset(t, app, alice, models.DatasetInput{Name: "Weather", Description: "Hourly readings", Topics: []string{"climate"}})
	assert.Equal(t, models.DefaultLicense, d.License)
	assert.Equal(t, alice, d.CreatedBy)

	status, env = do(t, app, http.MethodPost, "/api/v1/datasets/"+d.ID.String()+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var state models.LikeState
	decode(t, env, &state)
	assert.Equal(t, models.LikeState{Liked: true, Likes: 1}, state)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets?sort=popular&topic=climate", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var items []DatasetItem
	decode(t, env, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].Liked)
	assert.Equal(t, 1, items[0].Likes)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets", "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &items)
	require.Len(t, items, 1)
	assert.False(t, items[0].Liked)

	status, env = do(t, app, http.MethodGet, "/api/v1/likes", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var liked []uuid.UUID
	decode(t, env, &liked)
	assert.Equal(t, []uuid.UUID{d.ID}, liked)

	name := "Stolen"
	status, _ = do(t, app, http.MethodPatch, "/api/v1/datasets/"+d.ID.String(), bob, models.DatasetPatch{Name: &name})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = do(t, app, http.MethodPut, "/api/v1/datasets/"+d.ID.String()+"/topics", alice, models.TopicsInput{Topics: []string{"weather", "climate"}})
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &d)
	assert.Equal(t, models.StringList{"weather", "climate"}, d.Topics)

	status, env = do(t, app, http.MethodGet, "/api/v1/topics", "", nil)
	require.Equal(t, http.StatusOK, status)
	var topics []models.Topic
	decode(t, env, &topics)
	assert.Len(t, topics, 2)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets/search?q=weath", "", nil)
	require.Equal(t, http.StatusOK, status)
	var found []models.Dataset
	decode(t, env, &found)
	assert.Len(t, found, 1)

	status, _ = do(t, app, http.MethodDelete, "/api/v1/datasets/"+d.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets/"+d.ID.String(), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Dataset not found", env.Message)
}

func TestListDatasetsDefaultsToRecent(t *testing.T) {
	app := newTestApp(t)
	older := createDataset(t, app, alice, models.DatasetInput{Name: "Older", Description: "first"})
	newer := createDataset(t, app, alice, models.DatasetInput{Name: "Newer", Description: "second"})

	status, _ := do(t, app, http.MethodPost, "/api/v1/datasets/"+older.ID.String()+"/like", bob, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := do(t, app, http.MethodGet, "/api/v1/datasets", "", nil)
	require.Equal(t, http.StatusOK, status)
	var items []DatasetItem
	decode(t, env, &items)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets?sort=popular", "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &items)
	require.Len(t, items, 2)
	assert.Equal(t, older.ID, items[0].ID)
}

func TestSearchRouteCapsLimit(t *testing.T) {
	app := newTestApp(t)
	createDataset(t, app, alice, models.DatasetInput{Name: "Weather", Description: "Hourly readings"})

	status, env := do(t, app, http.MethodGet, "/api/v1/datasets/search?q=weather&limit=1099511627776", "", nil)
	require.Equal(t, http.StatusOK, status)
	var found []models.Dataset
	decode(t, env, &found)
	assert.Len(t, found, 1)
}

func TestRequestValidation(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/datasets", alice, map[string]string{"name": "x", "description": "y", "bogus": "z"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request format", env.Message)

	status, env = do(t, app, http.MethodPost, "/api/v1/datasets", alice, models.DatasetInput{Name: "  ", Description: "y"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Dataset name is required", env.Message)

	status, env = do(t, app, http.MethodGet, "/api/v1/datasets/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid id", env.Message)
}

func TestUploadRoute(t *testing.T) {
	store := &memBlob{objects: map[string][]byte{}}
	app := newTestApp(t, gateway.WithBlobStore(store))
	d := createDataset(t, app, alice, models.DatasetInput{Name: "Weather", Description: "Hourly readings"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "readings.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+d.ID.String()+"/file", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(auth.WalletHeader, alice)
	status, env := send(t, app, req)
	require.Equal(t, http.StatusOK, status, env.Message)

	var got models.Dataset
	decode(t, env, &got)
	require.NotNil(t, got.FileURL)
	assert.Contains(t, *got.FileURL, d.ID.String()+"/")
	assert.Len(t, store.objects, 1)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+d.ID.String()+"/file", nil)
	req.Header.Set(auth.WalletHeader, alice)
	status, env = send(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "File is required", env.Message)
}

func TestCollectionRoutes(t *testing.T) {
	app := newTestApp(t)
	d := createDataset(t, app, alice, models.DatasetInput{Name: "Weather", Description: "Hourly readings"})

	status, env := do(t, app, http.MethodPost, "/api/v1/collections", alice, models.CollectionInput{Name: "Mine"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var col models.Collection
	decode(t, env, &col)
	base := "/api/v1/collections/" + col.ID.String()

	status, _ = do(t, app, http.MethodPost, base+"/datasets/"+d.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodPost, base+"/datasets/"+d.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, status)
	// private and not shared: bob cannot see it at all
	status, _ = do(t, app, http.MethodPost, base+"/datasets/"+d.ID.String(), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodGet, base, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, base+"/share", alice, models.ShareInput{WalletAddress: bob})
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, app, http.MethodGet, base, bob, nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &col)
	require.Len(t, col.Datasets, 1)
	assert.Equal(t, 1, col.Datasets[0].CollectionCount)

	status, env = do(t, app, http.MethodGet, "/api/v1/collections", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.Collection
	decode(t, env, &list)
	assert.Len(t, list, 1)

	public := true
	status, env = do(t, app, http.MethodPatch, base, alice, models.CollectionPatch{IsPublic: &public})
	require.Equal(t, http.StatusOK, status)
	decode(t, env, &col)
	assert.True(t, col.IsPublic)

	// visible but not owned
	status, _ = do(t, app, http.MethodDelete, base+"/datasets/"+d.ID.String(), bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, app, http.MethodDelete, base, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, app, http.MethodDelete, base+"/datasets/"+d.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodDelete, base, alice, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodGet, base, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProfileRoutes(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodGet, "/api/v1/profiles/"+alice, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Profile not found", env.Message)

	status, env = do(t, app, http.MethodPut, "/api/v1/profile", alice, models.ProfileInput{Username: "alice", Email: "alice@example.com"})
	require.Equal(t, http.StatusOK, status, env.Message)

	for _, caller := range []string{"", bob} {
		status, env = do(t, app, http.MethodGet, "/api/v1/profiles/"+alice, caller, nil)
		require.Equal(t, http.StatusOK, status)
		var fields map[string]interface{}
		decode(t, env, &fields)
		assert.Equal(t, alice, fields["wallet_address"])
		assert.Equal(t, "alice", fields["username"])
		assert.NotContains(t, fields, "email")
	}

	status, env = do(t, app, http.MethodGet, "/api/v1/profiles/"+alice, alice, nil)
	require.Equal(t, http.StatusOK, status)
	var p models.UserProfile
	decode(t, env, &p)
	require.NotNil(t, p.Email)
	assert.Equal(t, "alice@example.com", *p.Email)

	status, env = do(t, app, http.MethodPut, "/api/v1/profile", bob, models.ProfileInput{Username: "alice"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username is already taken", env.Message)
}
