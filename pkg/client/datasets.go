package client

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// DatasetItem is a listed dataset flagged with the caller's like.
type DatasetItem struct {
	models.Dataset
	Liked bool `json:"liked"`
}

func datasetPath(id uuid.UUID) string { return "/datasets/" + id.String() }

// Browse lists the visible datasets matching f in key order, each flagged
// with the connected wallet's like.
func (c *Client) Browse(ctx context.Context, f listing.Filter, key listing.SortKey) ([]DatasetItem, error) {
	q := url.Values{}
	if f.Topic != "" {
		q.Set("topic", f.Topic)
	}
	if f.License != "" {
		q.Set("license", f.License)
	}
	if f.SearchQuery != "" {
		q.Set("q", f.SearchQuery)
	}
	if key != "" {
		q.Set("sort", string(key))
	}
	var items []DatasetItem
	if err := c.Get(ctx, "/datasets", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListDatasets is Browse without the like flags.
func (c *Client) ListDatasets(ctx context.Context, f listing.Filter, key listing.SortKey) ([]models.Dataset, error) {
	items, err := c.Browse(ctx, f, key)
	if err != nil {
		return nil, err
	}
	datasets := make([]models.Dataset, len(items))
	for i, it := range items {
		datasets[i] = it.Dataset
	}
	return datasets, nil
}

func (c *Client) SearchDatasets(ctx context.Context, q string, limit int) ([]models.Dataset, error) {
	v := url.Values{"q": {q}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var found []models.Dataset
	if err := c.Get(ctx, "/datasets/search", v, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func (c *Client) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	var d models.Dataset
	if err := c.Get(ctx, datasetPath(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDataset checks the wallet, the input and the license locally and
// only then posts the dataset.
func (c *Client) CreateDataset(ctx context.Context, in models.DatasetInput) (*models.Dataset, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	in.Trim()
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.License != "" && !models.IsKnownLicense(in.License) {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Unknown license", in.License)
	}

	var d models.Dataset
	if err := c.Post(ctx, "/datasets", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateDataset(ctx context.Context, id uuid.UUID, p models.DatasetPatch) (*models.Dataset, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	var d models.Dataset
	if err := c.Patch(ctx, datasetPath(id), p, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateTopics(ctx context.Context, id uuid.UUID, topics []string) (*models.Dataset, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	var d models.Dataset
	if err := c.Put(ctx, datasetPath(id)+"/topics", models.TopicsInput{Topics: listing.NormalizeTopics(topics)}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	if err := c.requireWallet(); err != nil {
		return err
	}
	return c.Delete(ctx, datasetPath(id))
}

// UploadDatasetFile attaches the file read from r to the dataset.
func (c *Client) UploadDatasetFile(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*models.Dataset, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	var d models.Dataset
	if err := c.Upload(ctx, datasetPath(id)+"/file", filename, r, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ToggleLike flips the connected wallet's like and returns the server state.
func (c *Client) ToggleLike(ctx context.Context, id uuid.UUID) (models.LikeState, error) {
	var state models.LikeState
	if err := c.requireWallet(); err != nil {
		return state, err
	}
	err := c.Post(ctx, datasetPath(id)+"/like", nil, &state)
	return state, err
}

// LikedSet returns the datasets the connected wallet likes.
func (c *Client) LikedSet(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if c.Wallet() == "" {
		return ids, nil
	}
	if err := c.Get(ctx, "/likes", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	if err := c.Get(ctx, "/topics", nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}
