package gateway

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func collectionNotFound() error {
	return utils.NewError(utils.ErrNotFound.Code, "Collection not found")
}

func findCollection(db *gorm.DB, id uuid.UUID) (*models.Collection, error) {
	var c models.Collection
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, collectionNotFound()
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get collection")
	}
	return &c, nil
}

// ownedCollection loads the collection and checks wallet owns it. Collections
// wallet cannot see are reported missing.
func ownedCollection(db *gorm.DB, wallet string, id uuid.UUID) (*models.Collection, error) {
	c, err := findCollection(db, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(wallet) {
		return nil, collectionNotFound()
	}
	if err := auth.Authorize(wallet, c.CreatedBy); err != nil {
		return nil, err
	}
	return c, nil
}

// loadMembers fills each collection's datasets, oldest link first, keeping
// only the datasets wallet may see.
func loadMembers(db *gorm.DB, wallet string, collections []models.Collection) error {
	if len(collections) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}

	var links []models.CollectionDataset
	if err := db.Where("collection_id IN ?", ids).Order("added_at ASC").Find(&links).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load collection datasets")
	}

	datasetIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		datasetIDs = append(datasetIDs, l.DatasetID)
	}

	byID := map[uuid.UUID]models.Dataset{}
	if len(datasetIDs) > 0 {
		var found []models.Dataset
		if err := visibleTo(withCounts(db), wallet).Where("datasets.id IN ?", datasetIDs).Find(&found).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load collection datasets")
		}
		if err := attachAuthors(db, found); err != nil {
			return err
		}
		for _, d := range found {
			byID[d.ID] = d
		}
	}

	index := make(map[uuid.UUID]int, len(collections))
	for i := range collections {
		collections[i].Datasets = []models.Dataset{}
		index[collections[i].ID] = i
	}
	for _, l := range links {
		d, ok := byID[l.DatasetID]
		if !ok {
			continue
		}
		i := index[l.CollectionID]
		collections[i].Datasets = append(collections[i].Datasets, d)
	}
	return nil
}

// ListCollections returns the collections wallet owns, public ones, and
// those shared with wallet, newest first.
func (g *Gateway) ListCollections(ctx context.Context, wallet string) ([]models.Collection, error) {
	db := g.DB.WithContext(ctx)
	q := db.Model(&models.Collection{})
	switch {
	case wallet == "":
		q = q.Where("is_public = ?", true)
	case db.Dialector.Name() == "postgres":
		q = q.Where("is_public = ? OR created_by = ? OR ? = ANY(shared_with)", true, wallet, wallet)
	default:
		q = q.Where("is_public = ? OR created_by = ? OR shared_with LIKE ?", true, wallet, "%"+wallet+"%")
	}

	var found []models.Collection
	if err := q.Order("created_at DESC").Find(&found).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list collections")
	}

	collections := make([]models.Collection, 0, len(found))
	for _, c := range found {
		if c.VisibleTo(wallet) {
			collections = append(collections, c)
		}
	}
	sort.SliceStable(collections, func(i, j int) bool {
		return collections[i].CreatedAt.After(collections[j].CreatedAt)
	})

	if err := loadMembers(db, wallet, collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// GetCollection returns one collection with its datasets.
func (g *Gateway) GetCollection(ctx context.Context, wallet string, id uuid.UUID) (*models.Collection, error) {
	db := g.DB.WithContext(ctx)
	c, err := findCollection(db, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(wallet) {
		return nil, collectionNotFound()
	}
	one := []models.Collection{*c}
	if err := loadMembers(db, wallet, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// CreateCollection stores a new collection owned by wallet.
func (g *Gateway) CreateCollection(ctx context.Context, wallet string, in models.CollectionInput) (*models.Collection, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	in.Trim()
	if err := g.validate(in); err != nil {
		return nil, err
	}

	c := models.NewCollection(wallet, in.Name,
		models.WithCollectionDescription(in.Description),
		models.WithPublic(in.IsPublic),
	)
	if err := g.DB.WithContext(ctx).Create(c).Error; err != nil {
		g.Logger.Error(ctx).WithFields("error", err).Logs("Failed to create collection")
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create collection")
	}
	c.Datasets = []models.Dataset{}

	g.Logger.Info(ctx).WithFields("collection_id", c.ID, "wallet", wallet).Logs("Collection created")
	return c, nil
}

// UpdateCollection applies the set fields of p. Owner only.
func (g *Gateway) UpdateCollection(ctx context.Context, wallet string, id uuid.UUID, p models.CollectionPatch) (*models.Collection, error) {
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
	if p.IsPublic != nil {
		updates["is_public"] = *p.IsPublic
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(tx, wallet, id); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Collection{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update collection")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.Logger.Info(ctx).WithFields("collection_id", id).Logs("Collection updated")
	return g.GetCollection(ctx, wallet, id)
}

// DeleteCollection removes the collection and its links. Owner only.
func (g *Gateway) DeleteCollection(ctx context.Context, wallet string, id uuid.UUID) error {
	if err := auth.RequireConnected(wallet); err != nil {
		return err
	}

	var linked []uuid.UUID
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(tx, wallet, id); err != nil {
			return err
		}
		if err := tx.Model(&models.CollectionDataset{}).Where("collection_id = ?", id).Pluck("dataset_id", &linked).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load collection datasets")
		}
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionDataset{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete collection links")
		}
		if err := tx.Where("id = ?", id).Delete(&models.Collection{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete collection")
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(linked))
	for _, dsID := range linked {
		keys = append(keys, datasetKey(dsID))
	}
	g.forget(ctx, keys...)
	g.Logger.Info(ctx).WithFields("collection_id", id, "wallet", wallet).Logs("Collection deleted")
	return nil
}

// AddToCollection links a dataset into the collection. Adding a dataset
// that is already linked changes nothing. Owner only.
func (g *Gateway) AddToCollection(ctx context.Context, wallet string, collectionID, datasetID uuid.UUID) error {
	if err := auth.RequireConnected(wallet); err != nil {
		return err
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(tx, wallet, collectionID); err != nil {
			return err
		}
		d, err := findDataset(tx, datasetID)
		if err != nil {
			return err
		}
		if !d.VisibleTo(wallet) {
			return datasetNotFound()
		}
		link := &models.CollectionDataset{CollectionID: collectionID, DatasetID: datasetID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to add dataset to collection")
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.forget(ctx, datasetKey(datasetID))
	g.Logger.Info(ctx).WithFields("collection_id", collectionID, "dataset_id", datasetID).Logs("Dataset added to collection")
	return nil
}

// RemoveFromCollection unlinks a dataset. Removing a dataset that is not
// linked changes nothing. Owner only.
func (g *Gateway) RemoveFromCollection(ctx context.Context, wallet string, collectionID, datasetID uuid.UUID) error {
	if err := auth.RequireConnected(wallet); err != nil {
		return err
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(tx, wallet, collectionID); err != nil {
			return err
		}
		err := tx.Where("collection_id = ? AND dataset_id = ?", collectionID, datasetID).Delete(&models.CollectionDataset{}).Error
		if err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to remove dataset from collection")
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.forget(ctx, datasetKey(datasetID))
	g.Logger.Info(ctx).WithFields("collection_id", collectionID, "dataset_id", datasetID).Logs("Dataset removed from collection")
	return nil
}

// ShareCollection grants another wallet read access and, when that wallet's
// profile has an email, notifies it. Owner only.
func (g *Gateway) ShareCollection(ctx context.Context, wallet string, id uuid.UUID, in models.ShareInput) (*models.Collection, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	if err := g.validate(in); err != nil {
		return nil, err
	}
	if in.WalletAddress == wallet {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "You already own this collection")
	}

	var (
		name  string
		added bool
	)
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ownedCollection(tx, wallet, id)
		if err != nil {
			return err
		}
		name = c.Name
		if c.SharedWith.Contains(in.WalletAddress) {
			return nil
		}
		shared := append(models.StringList{}, c.SharedWith...)
		shared = append(shared, in.WalletAddress)
		if err := tx.Model(&models.Collection{}).Where("id = ?", id).Update("shared_with", shared).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to share collection")
		}
		added = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		g.Logger.Info(ctx).WithFields("collection_id", id, "shared_with", in.WalletAddress).Logs("Collection shared")
		g.notifyShared(ctx, wallet, in.WalletAddress, id, name)
	}
	return g.GetCollection(ctx, wallet, id)
}

func (g *Gateway) notifyShared(ctx context.Context, owner, recipient string, id uuid.UUID, name string) {
	if g.Mailer == nil {
		return
	}
	to, err := findProfile(g.DB.WithContext(ctx), recipient)
	if err != nil || to.Email == nil {
		return
	}
	ownerName := owner
	if from, err := findProfile(g.DB.WithContext(ctx), owner); err == nil && from.Username != nil {
		ownerName = *from.Username
	}
	recipientName := recipient
	if to.Username != nil {
		recipientName = *to.Username
	}

	notice := utils.ShareNotice{
		To:             *to.Email,
		RecipientName:  recipientName,
		OwnerName:      ownerName,
		CollectionName: name,
		CollectionID:   id.String(),
	}
	if err := g.Mailer.SendCollectionShared(ctx, notice); err != nil {
		g.Logger.Warn(ctx).WithFields("collection_id", id, "error", err).Logs("Share notification failed")
	}
}
