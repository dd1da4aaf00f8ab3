package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records that a wallet liked a dataset. The pair is the primary key.
type Like struct {
	DatasetID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"dataset_id"`
	WalletAddress string    `gorm:"size:64;primaryKey;index:idx_like_wallet" json:"wallet_address"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	Dataset *Dataset `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
}

// LikeState is the server's view of a wallet's like on a dataset.
type LikeState struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}
