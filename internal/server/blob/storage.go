// Package blob stores uploaded resource files. Keys are generated here and
// never derived from client-supplied names.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPresignNotSupported is returned by backends that cannot hand out
// direct download links.
var ErrPresignNotSupported = errors.New("storage backend cannot presign downloads")

// Storage keeps opaque blobs addressed by server-generated keys.
// Open returns common.ErrorNotFound for unknown keys. Deleting a missing key
// is not an error.
type Storage interface {
	Put(ctx context.Context, ext string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by backends that can issue time-limited links.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// now is a seam for tests.
var now = time.Now

// NewKey returns a fresh date-partitioned key ending in ext.
func NewKey(ext string) string {
	d := now()
	key := fmt.Sprintf("resources/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
	if ext = strings.Trim(ext, ". /\\"); ext != "" {
		key += "." + ext
	}
	return key
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
