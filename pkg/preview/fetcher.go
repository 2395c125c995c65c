// Package preview materializes document payloads as released-on-demand blobs.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/ratelimit"
	"github.com/sdejongh/doccompare/pkg/service"
	"github.com/sdejongh/doccompare/pkg/storage"
)

// DefaultMaxBytes caps a single preview payload
const DefaultMaxBytes int64 = 50 << 20

// defaultContentType is used when the service sends none
const defaultContentType = "application/octet-stream"

var errTooLarge = errors.New("payload exceeds preview size limit")

// Options configures a Fetcher
type Options struct {
	// MaxBytes caps a payload; 0 uses DefaultMaxBytes, negative disables the cap
	MaxBytes int64
	// Limiter throttles downloads; nil is unlimited
	Limiter *ratelimit.Limiter
	Logger  logging.Logger
}

// Fetcher downloads document payloads into a blob store
type Fetcher struct {
	svc      service.Service
	store    storage.BlobStore
	limiter  *ratelimit.Limiter
	maxBytes int64
	logger   logging.Logger
}

// NewFetcher creates a preview fetcher
func NewFetcher(svc service.Service, store storage.BlobStore, opts Options) *Fetcher {
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		svc:      svc,
		store:    store,
		limiter:  opts.Limiter,
		maxBytes: maxBytes,
		logger:   logging.OrNull(opts.Logger),
	}
}

// Fetch downloads a file and stores it as a blob owned by the caller.
// Every failure wraps models.ErrPreviewUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, desc models.FileDescriptor, meta models.ContextMetadata) (*models.PreviewAsset, error) {
	path := DownloadPath(desc, meta)
	fields := logging.Fields{"path": path, "details_id": desc.DetailsID}

	dl, err := f.Download(ctx, desc, meta)
	if err != nil {
		f.logger.Warn(ctx, "Preview download failed", mergeFields(fields, logging.Fields{"error": err.Error()}))
		return nil, fmt.Errorf("%w: %w", models.ErrPreviewUnavailable, err)
	}
	defer dl.Body.Close()

	if f.maxBytes > 0 && dl.Size > f.maxBytes {
		f.logger.Warn(ctx, "Preview too large", mergeFields(fields, logging.Fields{"size": dl.Size}))
		return nil, fmt.Errorf("%w: %w", models.ErrPreviewUnavailable, errTooLarge)
	}

	contentType := dl.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	var body io.Reader = ratelimit.NewReader(ctx, dl.Body, f.limiter)
	if f.maxBytes > 0 {
		body = &capReader{r: body, remaining: f.maxBytes}
	}

	info, err := f.store.Put(ctx, contentType, body)
	if err != nil {
		f.logger.Warn(ctx, "Preview could not be stored", mergeFields(fields, logging.Fields{"error": err.Error()}))
		return nil, fmt.Errorf("%w: %w", models.ErrPreviewUnavailable, err)
	}

	f.logger.Debug(ctx, "Preview fetched", mergeFields(fields, logging.Fields{
		"url":          info.URL,
		"content_type": info.ContentType,
		"bytes":        info.Size,
	}))

	return &models.PreviewAsset{
		URL:         info.URL,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// Download opens the raw payload of a file without storing it; the caller closes the body
func (f *Fetcher) Download(ctx context.Context, desc models.FileDescriptor, meta models.ContextMetadata) (*service.Download, error) {
	dl, err := f.svc.Download(ctx, DownloadPath(desc, meta))
	if err != nil {
		return nil, err
	}
	dl.Body = ratelimit.NewReadCloser(ctx, dl.Body, f.limiter)
	return dl, nil
}

// Open opens a fetched payload
func (f *Fetcher) Open(ctx context.Context, asset *models.PreviewAsset) (io.ReadCloser, error) {
	if asset == nil {
		return nil, models.ErrPreviewUnavailable
	}
	return f.store.Open(ctx, asset.URL)
}

// Release frees a fetched payload. A nil asset and repeated releases are no-ops.
func (f *Fetcher) Release(asset *models.PreviewAsset) error {
	if asset == nil {
		return nil
	}
	return f.store.Release(asset.URL)
}

// Store returns the blob store backing the fetcher
func (f *Fetcher) Store() storage.BlobStore {
	return f.store
}

// capReader fails once more than remaining bytes have been read
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}

func mergeFields(a, b logging.Fields) logging.Fields {
	out := make(logging.Fields, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
