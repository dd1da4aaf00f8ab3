package gateway

import (
	"context"

	"github.com/neutralface-io/nfai-web/internal/listing"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/neutralface-io/nfai-web/pkg/utils"
)

// ListTopics returns every topic used by a public dataset with its usage count.
func (g *Gateway) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	if g.cached(ctx, topicsKey, &topics) {
		return topics, nil
	}

	var lists []models.StringList
	err := g.DB.WithContext(ctx).Model(&models.Dataset{}).
		Where("visibility = ?", models.VisibilityPublic).
		Pluck("topics", &lists).Error
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load topics")
	}

	datasets := make([]models.Dataset, len(lists))
	for i, l := range lists {
		datasets[i].Topics = l
	}
	topics = listing.CountTopics(datasets)

	g.remember(ctx, topicsKey, topics)
	return topics, nil
}
