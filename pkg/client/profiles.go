package client

import (
	"context"
	"net/url"

	"github.com/neutralface-io/nfai-web/internal/models"
)

func (c *Client) GetProfile(ctx context.Context, wallet string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.Get(ctx, "/profiles/"+url.PathEscape(wallet), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile validates in locally before saving the connected wallet's profile.
func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileInput) (*models.UserProfile, error) {
	if err := c.requireWallet(); err != nil {
		return nil, err
	}
	in.Trim()
	if err := c.check(in); err != nil {
		return nil, err
	}
	var p models.UserProfile
	if err := c.Put(ctx, "/profile", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
