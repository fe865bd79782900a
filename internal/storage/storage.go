// Package storage holds the files a bot hands out: the per-bot document
// collection and the single reserved welcome image slot.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxObjectSize is the upload size cap (matches the Bot API photo limit).
const MaxObjectSize = 16 << 20 // 16 MiB

var (
	// ErrNotFound is returned when the requested object key does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrTooLarge is returned when an upload exceeds MaxObjectSize.
	ErrTooLarge = errors.New("object too large")

	// ErrUnsupportedType is returned for welcome images that are not JPEG/PNG.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is the storage backend contract. The MinIO implementation is
// used in production; the memory implementation backs tests.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// URL returns a time-limited retrieval URL for the object, or "" when
	// the backend cannot produce one.
	URL(ctx context.Context, key string) (string, error)
}

// DocsPrefix returns the object-key prefix for a bot's document collection.
func DocsPrefix(botID string) string {
	return botID + "/docs/"
}

// NewDocKey builds a fresh collection key for an uploaded file. The random
// component keeps same-named files distinct.
func NewDocKey(botID, filename string) string {
	return fmt.Sprintf("%s%s_%s", DocsPrefix(botID), uuid.NewString(), path.Base(filename))
}

// WelcomeKey returns the reserved welcome-slot key for a bot. There is
// exactly one per bot, so replacement is a plain overwrite.
func WelcomeKey(botID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		ext = ".jpg"
	}
	return botID + "/welcome" + ext
}

// FilenameFromKey recovers the original filename from a collection key.
func FilenameFromKey(key string) string {
	base := path.Base(key)
	// Keys look like <uuid>_<filename>; everything before the first
	// underscore is the random part.
	if i := strings.Index(base, "_"); i >= 0 {
		return base[i+1:]
	}
	return base
}

// AllowedWelcomeType reports whether the content type is acceptable for
// the welcome slot.
func AllowedWelcomeType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png":
		return true
	}
	return false
}
