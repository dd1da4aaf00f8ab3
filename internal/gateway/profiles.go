package gateway

import (
	"context"
	"errors"

	"github.com/neutralface-io/nfai-web/internal/auth"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func findProfile(db *gorm.DB, wallet string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := db.Where("wallet_address = ?", wallet).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Profile not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get profile")
	}
	return &p, nil
}

// GetProfile returns the profile of wallet.
func (g *Gateway) GetProfile(ctx context.Context, wallet string) (*models.UserProfile, error) {
	var p models.UserProfile
	if g.cached(ctx, profileKey(wallet), &p) {
		return &p, nil
	}
	found, err := findProfile(g.DB.WithContext(ctx), wallet)
	if err != nil {
		return nil, err
	}
	g.remember(ctx, profileKey(wallet), found)
	return found, nil
}

// UpdateProfile creates or replaces the caller's profile. Username and email
// must not belong to another wallet.
func (g *Gateway) UpdateProfile(ctx context.Context, wallet string, in models.ProfileInput) (*models.UserProfile, error) {
	if err := auth.RequireConnected(wallet); err != nil {
		return nil, err
	}
	in.Trim()
	if err := g.validate(in); err != nil {
		return nil, err
	}

	profile := models.NewUserProfile(wallet, models.WithUsername(in.Username), models.WithEmail(in.Email))

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if profile.Username != nil {
			if err := tx.Model(&models.UserProfile{}).
				Where("username = ? AND wallet_address <> ?", *profile.Username, wallet).
				Count(&taken).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check username")
			}
			if taken > 0 {
				return utils.NewError(utils.ErrConflict.Code, "Username is already taken")
			}
		}
		if profile.Email != nil {
			if err := tx.Model(&models.UserProfile{}).
				Where("email = ? AND wallet_address <> ?", *profile.Email, wallet).
				Count(&taken).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check email")
			}
			if taken > 0 {
				return utils.NewError(utils.ErrConflict.Code, "Email is already in use")
			}
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "updated_at"}),
		}).Create(profile).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with another wallet claiming the same name or email
			return utils.NewError(utils.ErrConflict.Code, "Username or email is already taken")
		}
		if err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to save profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.forget(ctx, profileKey(wallet))
	g.Logger.Info(ctx).WithFields("wallet", wallet).Logs("Profile updated")
	return findProfile(g.DB.WithContext(ctx), wallet)
}
