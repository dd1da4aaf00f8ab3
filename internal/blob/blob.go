// Package blob stores uploaded dataset files in an object store.
package blob

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Store puts and removes objects and knows their public URL.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ObjectKey places an upload under its dataset: "<dataset id>/<random uuid>.<ext>".
// The extension is whatever follows the last dot of the file's base name, or
// the whole base name when it has none. Only letters, digits, '-' and '_'
// survive so a client name can never add path segments to the key.
func ObjectKey(datasetID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i+1:]
	}
	ext = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, ext)
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s.%s", datasetID, uuid.New(), ext)
}

// SizeMB converts a byte count to whole megabytes, rounding half up.
func SizeMB(bytes int64) int {
	if bytes <= 0 {
		return 0
	}
	return int(math.Round(float64(bytes) / 1024 / 1024))
}
