package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobScheme prefixes every blob reference
const BlobScheme = "blob:"

// BlobInfo represents metadata about a stored payload
type BlobInfo struct {
	URL         string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// BlobStore holds ephemeral binary payloads behind opaque references.
// Implementations include an in-memory store and a temp-directory spool.
type BlobStore interface {
	// Put stores the content of reader and returns its reference
	Put(ctx context.Context, contentType string, reader io.Reader) (*BlobInfo, error)

	// Open opens a stored payload for reading; released references fail with models.ErrReleased
	Open(ctx context.Context, url string) (io.ReadCloser, error)

	// Stat returns payload metadata
	Stat(ctx context.Context, url string) (*BlobInfo, error)

	// Exists checks if a reference is live
	Exists(ctx context.Context, url string) (bool, error)

	// Release frees a payload; releasing twice or releasing an unknown reference is a no-op
	Release(url string) error

	// Close releases every payload held by the store
	Close() error
}

// newBlobURL issues a fresh reference
func newBlobURL() string {
	return BlobScheme + uuid.NewString()
}

// IsBlobURL reports whether s looks like a blob reference
func IsBlobURL(s string) bool {
	return strings.HasPrefix(s, BlobScheme)
}

// blobID strips the scheme from a reference
func blobID(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, BlobScheme)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
