package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/models"
)

func collectionPath(id uuid.UUID) string { return "/collections/" + id.String() }

func membershipPath(collectionID, datasetID uuid.UUID) string {
	return collectionPath(collectionID) + "/datasets/" + datasetID.String()
}

func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var list []models.Collection
	if err := c.Get(ctx, "/collections", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var col models.Collection
	if err := c.Get(ctx, collectionPath(id), nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *Client) CreateCollection(ctx context.Context, in models.CollectionInput) (*models.Collection, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	in.Trim()
	if err := c.check(in); err != nil {
		return nil, err
	}
	var col models.Collection
	if err := c.Post(ctx, "/collections", in, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id uuid.UUID, p models.CollectionPatch) (*models.Collection, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	p.Trim()
	if err := c.check(p); err != nil {
		return nil, err
	}
	var col models.Collection
	if err := c.Patch(ctx, collectionPath(id), p, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	if err := c.requireWallet(); err != nil {
		return err
	}
	return c.Delete(ctx, collectionPath(id))
}

func (c *Client) AddToCollection(ctx context.Context, collectionID, datasetID uuid.UUID) error {
	if err := c.requireWallet(); err != nil {
		return err
	}
	return c.Post(ctx, membershipPath(collectionID, datasetID), nil, nil)
}

func (c *Client) RemoveFromCollection(ctx context.Context, collectionID, datasetID uuid.UUID) error {
	if err := c.requireWallet(); err != nil {
		return err
	}
	return c.Delete(ctx, membershipPath(collectionID, datasetID))
}

// ShareCollection gives wallet read access to the collection.
func (c *Client) ShareCollection(ctx context.Context, id uuid.UUID, wallet string) (*models.Collection, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	in := models.ShareInput{WalletAddress: wallet}
	if err := c.check(in); err != nil {
		return nil, err
	}
	var col models.Collection
	if err := c.Post(ctx, collectionPath(id)+"/share", in, &col); err != nil {
		return nil, err
	}
	return &col, nil
}
