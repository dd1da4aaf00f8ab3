package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	Client *storage.Client
	Bucket string
}

// NewGCS opens a client with application default credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	w := g.Client.Bucket(g.Bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s to GCS: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.Client.Bucket(g.Bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s from GCS: %w", key, err)
	}
	return nil
}

func (g *GCS) PublicURL(key string) string {
	return "https://storage.googleapis.com/" + g.Bucket + "/" + key
}

func (g *GCS) Close() error {
	return g.Client.Close()
}
