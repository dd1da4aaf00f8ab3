package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	DefaultLicense = "MIT"
)

// Licenses is the fixed set of licenses a dataset may carry.
var Licenses = []string{
	"MIT",
	"Apache-2.0",
	"GPL-3.0",
	"BSD-3-Clause",
	"CC BY 4.0",
	"Public Domain",
}

// IsKnownLicense reports whether l is one of Licenses.
func IsKnownLicense(l string) bool {
	for _, known := range Licenses {
		if known == l {
			return true
		}
	}
	return false
}

type Dataset struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null;index:idx_dataset_name" json:"name"`
	Description string     `gorm:"type:text;not null" json:"description"`
	UploadDate  time.Time  `gorm:"not null;index:idx_dataset_upload_date" json:"upload_date"`
	Size        int        `gorm:"not null;default:0" json:"size"`
	Topics      StringList `json:"topics"`
	License     string     `gorm:"size:50;not null;index:idx_dataset_license" json:"license"`
	Visibility  string     `gorm:"size:20;not null;default:'public';index:idx_dataset_visibility" json:"visibility"`
	Likes       int        `gorm:"not null;default:0" json:"likes"`
	FileURL     *string    `gorm:"size:1000" json:"file_url,omitempty"`
	CreatedBy   string     `gorm:"size:64;not null;index:idx_dataset_created_by" json:"created_by"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Derived on read from collection_datasets, never stored.
	CollectionCount int     `gorm:"->;-:migration" json:"collection_count"`
	Author          *Author `gorm:"-" json:"author,omitempty"`
}

// Author is the public projection of a dataset owner's profile.
type Author struct {
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address"`
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// NewDataset builds a dataset owned by wallet with zero likes and size,
// uploaded now, public and MIT-licensed unless opts say otherwise.
func NewDataset(wallet, name, description string, opts ...DatasetOption) *Dataset {
	d := &Dataset{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		UploadDate:  time.Now().UTC(),
		Topics:      StringList{},
		License:     DefaultLicense,
		Visibility:  VisibilityPublic,
		CreatedBy:   wallet,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Topics == nil {
		d.Topics = StringList{}
	}
	return nil
}

// IsPublic reports whether anyone may see the dataset.
func (d *Dataset) IsPublic() bool {
	return d.Visibility != VisibilityPrivate
}

// VisibleTo reports whether wallet may read the dataset.
func (d *Dataset) VisibleTo(wallet string) bool {
	return d.IsPublic() || (wallet != "" && d.CreatedBy == wallet)
}

// DatasetInput is the payload for creating a dataset.
type DatasetInput struct {
	Name        string   `json:"name" label:"Dataset name" validate:"notblank,max=200"`
	Description string   `json:"description" label:"Description" validate:"notblank,max=5000"`
	Visibility  string   `json:"visibility" label:"Visibility" validate:"omitempty,oneof=public private"`
	License     string   `json:"license" label:"License" validate:"omitempty,max=50"`
	Topics      []string `json:"topics" label:"Topics" validate:"max=20,dive,max=50"`
}

// Trim strips surrounding whitespace from the text fields.
func (in *DatasetInput) Trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Visibility = strings.TrimSpace(in.Visibility)
	in.License = strings.TrimSpace(in.License)
}

// DatasetPatch carries the fields an owner may change; nil means unchanged.
type DatasetPatch struct {
	Name        *string `json:"name" label:"Dataset name" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description" label:"Description" validate:"omitnil,notblank,max=5000"`
	Visibility  *string `json:"visibility" label:"Visibility" validate:"omitnil,oneof=public private"`
	License     *string `json:"license" label:"License" validate:"omitnil,max=50"`
}

// Trim strips surrounding whitespace from the set text fields.
func (p *DatasetPatch) Trim() {
	for _, s := range []*string{p.Name, p.Description, p.Visibility, p.License} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// Empty reports whether the patch changes nothing.
func (p *DatasetPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Visibility == nil && p.License == nil
}
