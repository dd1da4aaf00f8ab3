// Package search mirrors datasets into a Meilisearch index for quick search.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/neutralface-io/nfai-web/internal/models"
)

const IndexName = "datasets"

// Document is the indexed shape of a dataset.
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	License     string   `json:"license"`
	Visibility  string   `json:"visibility"`
	CreatedBy   string   `json:"created_by"`
	Likes       int      `json:"likes"`
}

func toDocument(d models.Dataset) Document {
	return Document{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		Topics:      append([]string{}, d.Topics...),
		License:     d.License,
		Visibility:  d.Visibility,
		CreatedBy:   d.CreatedBy,
		Likes:       d.Likes,
	}
}

type Indexer struct {
	Client *meilisearch.Client
	Index  string
}

// NewIndexer creates the index if needed and configures its attributes.
func NewIndexer(host, apiKey string) (*Indexer, error) {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	_, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        IndexName,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	index := client.Index(IndexName)

	task, err := index.UpdateFilterableAttributes(&[]string{"visibility", "created_by", "license", "topics"})
	if err != nil {
		return nil, fmt.Errorf("failed to update filterable attributes: %w", err)
	}
	if _, err := client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for filterable attributes update: %w", err)
	}

	task, err = index.UpdateSearchableAttributes(&[]string{"name", "description", "topics"})
	if err != nil {
		return nil, fmt.Errorf("failed to update searchable attributes: %w", err)
	}
	if _, err := client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for searchable attributes update: %w", err)
	}

	return &Indexer{Client: client, Index: IndexName}, nil
}

// Upsert indexes d, replacing any earlier version.
func (i *Indexer) Upsert(ctx context.Context, d models.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	docs := []Document{toDocument(d)}
	if _, err := i.Client.Index(i.Index).AddDocuments(&docs, "id"); err != nil {
		return fmt.Errorf("failed to index dataset %s: %w", d.ID, err)
	}
	return nil
}

// Remove drops a dataset from the index.
func (i *Indexer) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := i.Client.Index(i.Index).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("failed to remove dataset %s from index: %w", id, err)
	}
	return nil
}

// Search returns the ids of up to limit datasets matching q that wallet may see.
func (i *Indexer) Search(ctx context.Context, q, wallet string, limit int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := i.Client.Index(i.Index).Search(q, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Filter:               VisibilityFilter(wallet),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to perform search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		raw, _ := doc["id"].(string)
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// VisibilityFilter limits hits to public datasets plus the wallet's own.
func VisibilityFilter(wallet string) string {
	filter := fmt.Sprintf("visibility = %q", models.VisibilityPublic)
	if wallet != "" {
		filter += fmt.Sprintf(" OR created_by = %q", wallet)
	}
	return filter
}
