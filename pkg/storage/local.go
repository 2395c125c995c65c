package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Local is a filesystem spool: each payload is a file in a private directory
type Local struct {
	rootPath string
	owned    bool // rootPath was created by NewTempLocal and is removed on Close

	mu    sync.Mutex
	blobs map[string]BlobInfo
}

// NewLocal creates a spool in an existing directory
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath, blobs: make(map[string]BlobInfo)}, nil
}

// NewTempLocal creates a spool in a fresh temporary directory under dir (os.TempDir when empty)
func NewTempLocal(dir string) (*Local, error) {
	root, err := os.MkdirTemp(dir, "doccompare-spool-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	l, err := NewLocal(root)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}
	l.owned = true
	return l, nil
}

// Root returns the spool directory
func (l *Local) Root() string {
	return l.rootPath
}

// Put writes the payload to a new spool file
func (l *Local) Put(ctx context.Context, contentType string, reader io.Reader) (*BlobInfo, error) {
	url := newBlobURL()
	id, _ := blobID(url)
	fullPath := filepath.Join(l.rootPath, id)

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := BlobInfo{
		URL:         url,
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now(),
	}

	l.mu.Lock()
	l.blobs[url] = info
	l.mu.Unlock()

	return &info, nil
}

// Open opens the spool file of a reference
func (l *Local) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	fullPath, err := l.Path(url)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Path returns the spool file of a live reference
func (l *Local) Path(url string) (string, error) {
	l.mu.Lock()
	_, ok := l.blobs[url]
	l.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", url, models.ErrReleased)
	}
	id, _ := blobID(url)
	return filepath.Join(l.rootPath, id), nil
}

// Stat returns payload metadata
func (l *Local) Stat(ctx context.Context, url string) (*BlobInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok := l.blobs[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, models.ErrReleased)
	}
	return &info, nil
}

// Exists checks if a reference is live
func (l *Local) Exists(ctx context.Context, url string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.blobs[url]
	return ok, nil
}

// Release removes the spool file of a reference
func (l *Local) Release(url string) error {
	l.mu.Lock()
	_, ok := l.blobs[url]
	delete(l.blobs, url)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	id, _ := blobID(url)
	if err := os.Remove(filepath.Join(l.rootPath, id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Close releases every payload and removes an owned spool directory
func (l *Local) Close() error {
	l.mu.Lock()
	urls := make([]string, 0, len(l.blobs))
	for url := range l.blobs {
		urls = append(urls, url)
	}
	l.mu.Unlock()

	var firstErr error
	for _, url := range urls {
		if err := l.Release(url); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if l.owned {
		if err := os.RemoveAll(l.rootPath); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove spool directory: %w", err)
		}
	}
	return firstErr
}
