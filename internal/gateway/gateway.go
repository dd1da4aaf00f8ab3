// Package gateway is the typed data boundary of the marketplace. Every
// operation takes the acting wallet explicitly and checks ownership before
// touching the store.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/blob"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/logger"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"gorm.io/gorm"
)

const (
	cacheTTL         = 10 * time.Minute
	reindexBatchSize = 100
)

// Cache is the JSON cache in front of hot reads.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// SearchIndex mirrors datasets for quick search.
type SearchIndex interface {
	Upsert(ctx context.Context, d models.Dataset) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q, wallet string, limit int) ([]uuid.UUID, error)
}

// Notifier tells a wallet's owner about a shared collection.
type Notifier interface {
	SendCollectionShared(ctx context.Context, n utils.ShareNotice) error
}

type Gateway struct {
	DB        *gorm.DB
	Logger    *logger.Logger
	Validator *utils.Validator

	Cache  Cache
	Blob   blob.Store
	Search SearchIndex
	Mailer Notifier
}

type Option func(*Gateway)

func WithCache(c Cache) Option {
	return func(g *Gateway) { g.Cache = c }
}

func WithBlobStore(s blob.Store) Option {
	return func(g *Gateway) { g.Blob = s }
}

func WithSearch(s SearchIndex) Option {
	return func(g *Gateway) { g.Search = s }
}

func WithMailer(m Notifier) Option {
	return func(g *Gateway) { g.Mailer = m }
}

// New builds a gateway over db. Cache, blob store, search and mail are optional.
func New(db *gorm.DB, log *logger.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		DB:        db,
		Logger:    log,
		Validator: utils.NewValidator(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) validate(v interface{}) error {
	if errs := g.Validator.Validate(v); errs != nil {
		return errs.AsError()
	}
	return nil
}

func checkLicense(license string) error {
	if license != "" && !models.IsKnownLicense(license) {
		return utils.NewError(utils.ErrBadRequest.Code, "License must be one of: "+strings.Join(models.Licenses, ", "))
	}
	return nil
}

func datasetKey(id uuid.UUID) string { return "dataset:" + id.String() }

func profileKey(wallet string) string { return "profile:" + wallet }

const topicsKey = "topics"

func (g *Gateway) cached(ctx context.Context, key string, dst interface{}) bool {
	if g.Cache == nil {
		return false
	}
	return g.Cache.GetJSON(ctx, key, dst)
}

func (g *Gateway) remember(ctx context.Context, key string, v interface{}) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.SetJSON(ctx, key, v, cacheTTL); err != nil {
		g.Logger.Warn(ctx).WithFields("key", key, "error", err).Logs("Failed to cache value in Redis")
	}
}

func (g *Gateway) forget(ctx context.Context, keys ...string) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Invalidate(ctx, keys...); err != nil {
		g.Logger.Warn(ctx).WithFields("keys", strings.Join(keys, ","), "error", err).Logs("Failed to invalidate cache")
	}
}

func (g *Gateway) index(ctx context.Context, d models.Dataset) {
	if g.Search == nil {
		return
	}
	if err := g.Search.Upsert(ctx, d); err != nil {
		g.Logger.Warn(ctx).WithFields("dataset_id", d.ID, "error", err).Logs("Failed to index dataset")
	}
}

func (g *Gateway) unindex(ctx context.Context, id uuid.UUID) {
	if g.Search == nil {
		return
	}
	if err := g.Search.Remove(ctx, id); err != nil {
		g.Logger.Warn(ctx).WithFields("dataset_id", id, "error", err).Logs("Failed to remove dataset from index")
	}
}

// Reindex pushes every stored dataset to the search index in batches and
// reports how many were sent. Without a search index it does nothing.
func (g *Gateway) Reindex(ctx context.Context) (int, error) {
	if g.Search == nil {
		return 0, nil
	}
	var (
		batch   []models.Dataset
		indexed int
	)
	err := withCounts(g.DB.WithContext(ctx)).FindInBatches(&batch, reindexBatchSize, func(tx *gorm.DB, _ int) error {
		for _, d := range batch {
			if err := g.Search.Upsert(ctx, d); err != nil {
				return err
			}
			indexed++
		}
		return nil
	}).Error
	if err != nil {
		return indexed, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to reindex datasets")
	}
	return indexed, nil
}

// Ping checks the database connection.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Database unavailable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Database unavailable")
	}
	return nil
}
