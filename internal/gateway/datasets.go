package gateway

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/blob"
	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"gorm.io/gorm"
)

const collectionCountColumn = "(SELECT COUNT(*) FROM collection_datasets WHERE collection_datasets.dataset_id = datasets.id) AS collection_count"

// withCounts selects datasets with their derived collection_count.
func withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Dataset{}).Select("datasets.*, " + collectionCountColumn)
}

// visibleTo keeps public datasets plus the wallet's own.
func visibleTo(db *gorm.DB, wallet string) *gorm.DB {
	if wallet == "" {
		return db.Where("datasets.visibility = ?", models.VisibilityPublic)
	}
	return db.Where("datasets.visibility = ? OR datasets.created_by = ?", models.VisibilityPublic, wallet)
}

func datasetNotFound() error {
	return utils.NewError(utils.ErrNotFound.Code, "Dataset not found")
}

func findDataset(db *gorm.DB, id uuid.UUID) (*models.Dataset, error) {
	var d models.Dataset
	if err := withCounts(db).Where("datasets.id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, datasetNotFound()
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get dataset")
	}
	return &d, nil
}

// attachAuthors sets each dataset's author projection from user_profiles.
func attachAuthors(db *gorm.DB, datasets []models.Dataset) error {
	wallets := make([]string, 0, len(datasets))
	seen := make(map[string]struct{}, len(datasets))
	for _, d := range datasets {
		if _, ok := seen[d.CreatedBy]; ok {
			continue
		}
		seen[d.CreatedBy] = struct{}{}
		wallets = append(wallets, d.CreatedBy)
	}
	if len(wallets) == 0 {
		return nil
	}

	var profiles []models.UserProfile
	if err := db.Where("wallet_address IN ?", wallets).Find(&profiles).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load authors")
	}
	byWallet := make(map[string]*models.UserProfile, len(profiles))
	for i := range profiles {
		byWallet[profiles[i].WalletAddress] = &profiles[i]
	}

	for i := range datasets {
		datasets[i].Author = &models.Author{
			Username:      byWallet[datasets[i].CreatedBy].DisplayUsername(),
			WalletAddress: datasets[i].CreatedBy,
		}
	}
	return nil
}

// ListDatasets returns the datasets wallet may see, filtered and sorted.
// The base order is newest first.
func (g *Gateway) ListDatasets(ctx context.Context, wallet string, f listing.Filter, key listing.SortKey) ([]models.Dataset, error) {
	var datasets []models.Dataset
	db := g.DB.WithContext(ctx)
	if err := visibleTo(withCounts(db), wallet).Order("datasets.upload_date DESC").Find(&datasets).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list datasets")
	}
	if err := attachAuthors(db, datasets); err != nil {
		return nil, err
	}
	return listing.Apply(datasets, f, key), nil
}

// GetDataset returns one dataset. A private dataset is reported missing to
// everyone but its owner.
func (g *Gateway) GetDataset(ctx context.Context, wallet string, id uuid.UUID) (*models.Dataset, error) {
	var d models.Dataset
	if !g.cached(ctx, datasetKey(id), &d) {
		found, err := findDataset(g.DB.WithContext(ctx), id)
		if err != nil {
			return nil, err
		}
		d = *found
		g.remember(ctx, datasetKey(id), d)
	}

	if !d.VisibleTo(wallet) {
		return nil, datasetNotFound()
	}

	one := []models.Dataset{d}
	if err := attachAuthors(g.DB.WithContext(ctx), one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (g *Gateway) datasetsByID(ctx context.Context, wallet string, ids []uuid.UUID) ([]models.Dataset, error) {
	if len(ids) == 0 {
		return []models.Dataset{}, nil
	}
	var found []models.Dataset
	db := g.DB.WithContext(ctx)
	if err := visibleTo(withCounts(db), wallet).Where("datasets.id IN ?", ids).Find(&found).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load datasets")
	}
	byID := make(map[uuid.UUID]models.Dataset, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	out := make([]models.Dataset, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	if err := attachAuthors(db, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchDatasets is the quick search: the index when configured and healthy,
// otherwise a substring scan of the visible list.
func (g *Gateway) SearchDatasets(ctx context.Context, wallet, q string, limit int) ([]models.Dataset, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Dataset{}, nil
	}
	limit = listing.ClampSearchLimit(limit)

	if g.Search != nil {
		ids, err := g.Search.Search(ctx, q, wallet, limit)
		if err == nil {
			return g.datasetsByID(ctx, wallet, ids)
		}
		g.Logger.Warn(ctx).WithFields("query", q, "error", err).Logs("Search index unavailable, scanning instead")
	}

	all, err := g.ListDatasets(ctx, wallet, listing.Filter{}, "")
	if err != nil {
		return nil, err
	}
	return listing.Search(all, q, limit), nil
}

// CreateDataset stores a new dataset owned by wallet with no likes, no file
// and an upload date of now.
func (g *Gateway) CreateDataset(ctx context.Context, wallet string, in models.DatasetInput) (*models.Dataset, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	in.Trim()
	if err := g.validate(in); err != nil {
		return nil, err
	}
	if err := checkLicense(in.License); err != nil {
		return nil, err
	}

	d := models.NewDataset(wallet, in.Name, in.Description,
		models.WithVisibility(in.Visibility),
		models.WithLicense(in.License),
		models.WithTopics(listing.NormalizeTopics(in.Topics)),
	)

	if err := g.DB.WithContext(ctx).Create(d).Error; err != nil {
		g.Logger.Error(ctx).WithFields("error", err).Logs("Failed to create dataset")
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create dataset")
	}

	g.forget(ctx, topicsKey)
	g.index(ctx, *d)
	g.Logger.Info(ctx).WithFields("dataset_id", d.ID, "wallet", wallet).Logs("Dataset created")

	one := []models.Dataset{*d}
	if err := attachAuthors(g.DB.WithContext(ctx), one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// mutateDataset loads the dataset inside a transaction, checks wallet owns it
// and applies updates. The refreshed dataset is returned.
func (g *Gateway) mutateDataset(ctx context.Context, wallet string, id uuid.UUID, updates map[string]interface{}) (*models.Dataset, error) {
	var updated *models.Dataset
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := findDataset(tx, id)
		if err != nil {
			return err
		}
		if !d.VisibleTo(wallet) {
			return datasetNotFound()
		}
		if err := auth.Authorize(wallet, d.CreatedBy); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Dataset{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update dataset")
			}
		}
		updated, err = findDataset(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.forget(ctx, datasetKey(id), topicsKey)
	g.index(ctx, *updated)

	one := []models.Dataset{*updated}
	if err := attachAuthors(g.DB.WithContext(ctx), one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// UpdateDataset applies the set fields of p. Owner only.
func (g *Gateway) UpdateDataset(ctx context.Context, wallet string, id uuid.UUID, p models.DatasetPatch) (*models.Dataset, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	p.Trim()
	if err := g.validate(p); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Visibility != nil {
		updates["visibility"] = *p.Visibility
	}
	if p.License != nil {
		if err := checkLicense(*p.License); err != nil {
			return nil, err
		}
		if *p.License != "" {
			updates["license"] = *p.License
		}
	}

	d, err := g.mutateDataset(ctx, wallet, id, updates)
	if err != nil {
		return nil, err
	}
	g.Logger.Info(ctx).WithFields("dataset_id", id).Logs("Dataset updated")
	return d, nil
}

// UpdateTopics replaces the dataset's topics with their normalized form. Owner only.
func (g *Gateway) UpdateTopics(ctx context.Context, wallet string, id uuid.UUID, topics []string) (*models.Dataset, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	if err := g.validate(models.TopicsInput{Topics: topics}); err != nil {
		return nil, err
	}

	d, err := g.mutateDataset(ctx, wallet, id, map[string]interface{}{
		"topics": models.StringList(listing.NormalizeTopics(topics)),
	})
	if err != nil {
		return nil, err
	}
	g.Logger.Info(ctx).WithFields("dataset_id", id, "topics", strings.Join(d.Topics, ",")).Logs("Dataset topics updated")
	return d, nil
}

// DeleteDataset removes the dataset with its likes and collection links. Owner only.
func (g *Gateway) DeleteDataset(ctx context.Context, wallet string, id uuid.UUID) error {
	if err := auth.RequireConnected(wallet); err != nil {
		return err
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := findDataset(tx, id)
		if err != nil {
			return err
		}
		if !d.VisibleTo(wallet) {
			return datasetNotFound()
		}
		if err := auth.Authorize(wallet, d.CreatedBy); err != nil {
			return err
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete dataset likes")
		}
		if err := tx.Where("dataset_id = ?", id).Delete(&models.CollectionDataset{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete collection links")
		}
		if err := tx.Where("id = ?", id).Delete(&models.Dataset{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete dataset")
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.forget(ctx, datasetKey(id), topicsKey)
	g.unindex(ctx, id)
	g.Logger.Info(ctx).WithFields("dataset_id", id, "wallet", wallet).Logs("Dataset deleted")
	return nil
}

// Upload describes a file to attach to a dataset.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadDatasetFile stores the file under "<dataset id>/<uuid>.<ext>", then
// records its public URL and size in megabytes. When recording fails the
// stored object is deleted again. Owner only.
func (g *Gateway) UploadDatasetFile(ctx context.Context, wallet string, id uuid.UUID, up Upload) (*models.Dataset, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	if g.Blob == nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "File storage is not configured")
	}
	if up.Body == nil || strings.TrimSpace(up.Filename) == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "File is required")
	}

	d, err := findDataset(g.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !d.VisibleTo(wallet) {
		return nil, datasetNotFound()
	}
	if err := auth.Authorize(wallet, d.CreatedBy); err != nil {
		return nil, err
	}

	key := blob.ObjectKey(id, up.Filename)
	if err := g.Blob.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		g.Logger.Error(ctx).WithFields("dataset_id", id, "key", key, "error", err).Logs("Failed to upload dataset file")
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to upload file")
	}
	url := g.Blob.PublicURL(key)

	res := g.DB.WithContext(ctx).Model(&models.Dataset{}).Where("id = ?", id).Updates(map[string]interface{}{
		"file_url": url,
		"size":     blob.SizeMB(up.Size),
	})
	if res.Error == nil && res.RowsAffected == 0 {
		res.Error = gorm.ErrRecordNotFound
	}
	if res.Error != nil {
		if delErr := g.Blob.Delete(ctx, key); delErr != nil {
			g.Logger.Error(ctx).WithFields("key", key, "error", delErr).Logs("Failed to clean up orphaned upload")
		}
		g.Logger.Error(ctx).WithFields("dataset_id", id, "error", res.Error).Logs("Failed to record dataset file")
		return nil, utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to update dataset file")
	}

	g.forget(ctx, datasetKey(id))
	g.Logger.Info(ctx).WithFields("dataset_id", id, "key", key, "size_mb", blob.SizeMB(up.Size)).Logs("Dataset file uploaded")
	return g.GetDataset(ctx, wallet, id)
}
