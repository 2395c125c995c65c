package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
)

type memBlob struct {
	info BlobInfo
	data []byte
}

// Memory is an in-process blob store
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]*memBlob
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]*memBlob)}
}

// Put stores the payload in memory
func (m *Memory) Put(ctx context.Context, contentType string, reader io.Reader) (*BlobInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob := &memBlob{
		info: BlobInfo{
			URL:         newBlobURL(),
			ContentType: contentType,
			Size:        int64(len(data)),
			CreatedAt:   time.Now(),
		},
		data: data,
	}

	m.mu.Lock()
	m.blobs[blob.info.URL] = blob
	m.mu.Unlock()

	info := blob.info
	return &info, nil
}

// Open returns a reader over the payload
func (m *Memory) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	blob, err := m.get(url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Stat returns payload metadata
func (m *Memory) Stat(ctx context.Context, url string) (*BlobInfo, error) {
	blob, err := m.get(url)
	if err != nil {
		return nil, err
	}
	info := blob.info
	return &info, nil
}

// Exists checks if a reference is live
func (m *Memory) Exists(ctx context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[url]
	return ok, nil
}

// Release drops the payload
func (m *Memory) Release(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, url)
	return nil
}

// Len returns the number of live payloads
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Close drops every payload
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make(map[string]*memBlob)
	return nil
}

func (m *Memory) get(url string) (*memBlob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, models.ErrReleased)
	}
	return blob, nil
}
