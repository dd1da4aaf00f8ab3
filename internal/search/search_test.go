package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestVisibilityFilter(t *testing.T) {
	assert.Equal(t, `visibility = "public"`, VisibilityFilter(""))
	assert.Equal(t, `visibility = "public" OR created_by = "abc"`, VisibilityFilter("abc"))
}

func TestToDocument(t *testing.T) {
	d := models.Dataset{
		ID:         uuid.New(),
		Name:       "Weather",
		Topics:     models.StringList{"climate"},
		License:    "MIT",
		Visibility: models.VisibilityPrivate,
		CreatedBy:  "abc",
		Likes:      2,
	}
	doc := toDocument(d)
	assert.Equal(t, d.ID.String(), doc.ID)
	assert.Equal(t, []string{"climate"}, doc.Topics)
	assert.Equal(t, "private", doc.Visibility)
	assert.Equal(t, 2, doc.Likes)
}
