package view

import (
	"context"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
)

// DatasetSource lists the datasets visible to the caller.
type DatasetSource interface {
	ListDatasets(ctx context.Context, f listing.Filter, key listing.SortKey) ([]models.Dataset, error)
}

// DatasetListView is the dataset browser: the fetched list plus the filter
// and sort chosen locally.
type DatasetListView struct {
	src    DatasetSource
	loader Loader[[]models.Dataset]

	Filter listing.Filter
	Sort   listing.SortKey
}

func NewDatasetListView(src DatasetSource) *DatasetListView {
	return &DatasetListView{
		src:    src,
		Filter: listing.Filter{Topic: listing.All, License: listing.All},
		Sort:   listing.SortRecent,
	}
}

// Reload fetches the full list. A reload overtaken by a later one is dropped.
func (v *DatasetListView) Reload(ctx context.Context) (bool, error) {
	_, applied, err := v.loader.Load(ctx, func(ctx context.Context) ([]models.Dataset, error) {
		return v.src.ListDatasets(ctx, listing.Filter{}, "")
	})
	return applied, err
}

// Datasets is the loaded list after the current filter and sort.
func (v *DatasetListView) Datasets() []models.Dataset {
	all, _ := v.loader.Value()
	return listing.Apply(all, v.Filter, v.Sort)
}

// Topics are the distinct topics of the loaded list.
func (v *DatasetListView) Topics() []string {
	all, _ := v.loader.Value()
	return listing.TopicNames(listing.CountTopics(all))
}

// ResetFilters clears topic, license and search.
func (v *DatasetListView) ResetFilters() {
	v.Filter = listing.Filter{Topic: listing.All, License: listing.All}
}

// CollectionSource reads and edits one collection.
type CollectionSource interface {
	GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	AddToCollection(ctx context.Context, collectionID, datasetID uuid.UUID) error
	RemoveFromCollection(ctx context.Context, collectionID, datasetID uuid.UUID) error
}

// CollectionView shows one collection. Membership edits re-fetch the
// collection instead of patching counts locally.
type CollectionView struct {
	src    CollectionSource
	id     uuid.UUID
	loader Loader[*models.Collection]
}

func NewCollectionView(src CollectionSource, id uuid.UUID) *CollectionView {
	return &CollectionView{src: src, id: id}
}

// Refresh re-fetches the collection.
func (v *CollectionView) Refresh(ctx context.Context) error {
	_, _, err := v.loader.Load(ctx, func(ctx context.Context) (*models.Collection, error) {
		return v.src.GetCollection(ctx, v.id)
	})
	return err
}

// Collection is the last loaded collection, nil before the first load.
func (v *CollectionView) Collection() *models.Collection {
	c, _ := v.loader.Value()
	return c
}

func (v *CollectionView) Add(ctx context.Context, datasetID uuid.UUID) error {
	if err := v.src.AddToCollection(ctx, v.id, datasetID); err != nil {
		return err
	}
	return v.Refresh(ctx)
}

func (v *CollectionView) Remove(ctx context.Context, datasetID uuid.UUID) error {
	if err := v.src.RemoveFromCollection(ctx, v.id, datasetID); err != nil {
		return err
	}
	return v.Refresh(ctx)
}

// Toggle adds the dataset when absent and removes it when present.
// added reports the membership after the call.
func (v *CollectionView) Toggle(ctx context.Context, datasetID uuid.UUID) (added bool, err error) {
	if c := v.Collection(); c != nil && c.Has(datasetID) {
		return false, v.Remove(ctx, datasetID)
	}
	return true, v.Add(ctx, datasetID)
}

// Candidates are the datasets that could still be added, matching q.
func (v *CollectionView) Candidates(all []models.Dataset, q string) []models.Dataset {
	var members []models.Dataset
	if c := v.Collection(); c != nil {
		members = c.Datasets
	}
	return listing.ExcludeMembers(all, members, q)
}
