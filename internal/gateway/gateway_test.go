package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/neutralface-io/nfai-web/internal/db"
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
	carol = wallet(3)
)

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
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

	return New(gdb, log, opts...)
}

func mustCreate(t *testing.T, g *Gateway, owner, name string, opts ...func(*models.DatasetInput)) *models.Dataset {
	t.Helper()
	in := models.DatasetInput{Name: name, Description: name + " description"}
	for _, opt := range opts {
		opt(&in)
	}
	d, err := g.CreateDataset(context.Background(), owner, in)
	require.NoError(t, err)
	return d
}

func private(in *models.DatasetInput) { in.Visibility = models.VisibilityPrivate }

func topics(t ...string) func(*models.DatasetInput) {
	return func(in *models.DatasetInput) { in.Topics = t }
}

func requireStatus(t *testing.T, err error, status int) *utils.CustomError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.CustomError
	require.True(t, utils.As(err, &appErr), "expected CustomError, got %T: %v", err, err)
	require.Equal(t, status, appErr.Code, appErr.Message)
	return appErr
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	return ok && json.Unmarshal(raw, dst) == nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fakeBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeBlob() *fakeBlob { return &fakeBlob{objects: map[string][]byte{}} }

func (b *fakeBlob) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBlob) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlob) PublicURL(key string) string {
	return "https://files.test/" + key
}

type fakeIndex struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]models.Dataset
	failing   bool
	lastLimit int
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[uuid.UUID]models.Dataset{}} }

func (f *fakeIndex) Upsert(ctx context.Context, d models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[d.ID] = d
	return nil
}

func (f *fakeIndex) Remove(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, q, wallet string, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	if f.failing {
		return nil, errors.New("index offline")
	}
	var ids []uuid.UUID
	for id, d := range f.docs {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(q)) && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	notices []utils.ShareNotice
}

func (m *fakeMailer) SendCollectionShared(ctx context.Context, n utils.ShareNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	return nil
}

func TestPing(t *testing.T) {
	g := newTestGateway(t)
	assert.NoError(t, g.Ping(context.Background()))
}

func TestCacheIsRefreshedAfterWrites(t *testing.T) {
	cache := newMemCache()
	g := newTestGateway(t, WithCache(cache))
	ctx := context.Background()
	d := mustCreate(t, g, alice, "Weather")

	got, err := g.GetDataset(ctx, bob, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Likes)
	assert.True(t, cache.has(datasetKey(d.ID)))

	_, err = g.ToggleLike(ctx, bob, d.ID)
	require.NoError(t, err)
	assert.False(t, cache.has(datasetKey(d.ID)))

	got, err = g.GetDataset(ctx, bob, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	_, err = g.ListTopics(ctx)
	require.NoError(t, err)
	assert.True(t, cache.has(topicsKey))
	mustCreate(t, g, alice, "Faces", topics("image"))
	assert.False(t, cache.has(topicsKey))
}
