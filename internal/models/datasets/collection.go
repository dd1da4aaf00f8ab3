package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Collection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"size:500" json:"description"`
	CreatedBy   string     `gorm:"size:64;not null;index:idx_collection_created_by" json:"created_by"`
	IsPublic    bool       `gorm:"not null;default:false;index:idx_collection_public" json:"is_public"`
	SharedWith  StringList `json:"shared_with"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Datasets []Dataset `gorm:"-" json:"datasets,omitempty"`
}

// CollectionDataset links a dataset into a collection. The pair is unique.
type CollectionDataset struct {
	CollectionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"collection_id"`
	DatasetID    uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_collection_dataset_dataset" json:"dataset_id"`
	AddedAt      time.Time `gorm:"autoCreateTime" json:"added_at"`

	Collection *Collection `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"-"`
	Dataset    *Dataset    `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// NewCollection builds a private collection owned by wallet.
func NewCollection(wallet, name string, opts ...CollectionOption) *Collection {
	c := &Collection{
		Name:       strings.TrimSpace(name),
		CreatedBy:  wallet,
		SharedWith: StringList{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.SharedWith == nil {
		c.SharedWith = StringList{}
	}
	return nil
}

// VisibleTo reports whether wallet may read the collection.
func (c *Collection) VisibleTo(wallet string) bool {
	if c.IsPublic {
		return true
	}
	if wallet == "" {
		return false
	}
	return c.CreatedBy == wallet || c.SharedWith.Contains(wallet)
}

// Has reports whether the loaded datasets include id.
func (c *Collection) Has(id uuid.UUID) bool {
	for _, d := range c.Datasets {
		if d.ID == id {
			return true
		}
	}
	return false
}

// CollectionInput is the payload for creating a collection.
type CollectionInput struct {
	Name        string `json:"name" label:"Collection name" validate:"notblank,max=100"`
	Description string `json:"description" label:"Description" validate:"max=500"`
	IsPublic    bool   `json:"is_public"`
}

func (in *CollectionInput) Trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// CollectionPatch carries the fields an owner may change; nil means unchanged.
type CollectionPatch struct {
	Name        *string `json:"name" label:"Collection name" validate:"omitnil,notblank,max=100"`
	Description *string `json:"description" label:"Description" validate:"omitnil,max=500"`
	IsPublic    *bool   `json:"is_public"`
}

func (p *CollectionPatch) Trim() {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		*p.Description = strings.TrimSpace(*p.Description)
	}
}

// ShareInput names the wallet a collection is shared with.
type ShareInput struct {
	WalletAddress string `json:"wallet_address" label:"Wallet address" validate:"required,wallet"`
}
