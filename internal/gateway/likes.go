package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleLike flips wallet's like on a dataset and its counter in one
// transaction. The (dataset, wallet) key makes each flip happen exactly once;
// the counter never drops below zero.
func (g *Gateway) ToggleLike(ctx context.Context, wallet string, id uuid.UUID) (models.LikeState, error) {
	var state models.LikeState
	if err := auth.RequireConnected(wallet); err != nil {
		return state, err
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := findDataset(forUpdate(tx), id)
		if err != nil {
			return err
		}
		if !d.VisibleTo(wallet) {
			return datasetNotFound()
		}

		res := tx.Where("dataset_id = ? AND wallet_address = ?", id, wallet).Delete(&models.Like{})
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to remove like")
		}

		if res.RowsAffected > 0 {
			state.Liked = false
			err = tx.Model(&models.Dataset{}).Where("id = ?", id).
				UpdateColumn("likes", gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")).Error
		} else {
			state.Liked = true
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{DatasetID: id, WalletAddress: wallet})
			if ins.Error != nil {
				return utils.WrapError(ins.Error, utils.ErrInternalServerError.Code, "Failed to add like")
			}
			if ins.RowsAffected > 0 {
				err = tx.Model(&models.Dataset{}).Where("id = ?", id).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error
			} else {
				g.Logger.Warn(ctx).WithFields("dataset_id", id, "wallet", wallet).Logs("Like already recorded by a concurrent toggle")
			}
		}
		if err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update like count")
		}

		return tx.Model(&models.Dataset{}).Select("likes").Where("id = ?", id).Scan(&state.Likes).Error
	})
	if err != nil {
		return models.LikeState{}, err
	}

	g.forget(ctx, datasetKey(id))
	g.Logger.Debug(ctx).WithFields("dataset_id", id, "liked", state.Liked, "likes", state.Likes).Logs("Like toggled")
	return state, nil
}

// forUpdate row-locks what the query reads until the transaction ends, so
// toggles on one dataset run one after another. SQLite already serializes
// writers and has no FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// LikedSet returns the ids of the datasets wallet has liked.
func (g *Gateway) LikedSet(ctx context.Context, wallet string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if wallet == "" {
		return ids, nil
	}
	if err := g.DB.WithContext(ctx).Model(&models.Like{}).Where("wallet_address = ?", wallet).Pluck("dataset_id", &ids).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load likes")
	}
	return ids, nil
}
