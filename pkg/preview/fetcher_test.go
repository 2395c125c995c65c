package preview

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/service"
	"github.com/sdejongh/doccompare/pkg/storage"
)

// fakeService serves downloads from a path-keyed map
type fakeService struct {
	mu        sync.Mutex
	payloads  map[string]string
	types     map[string]string
	noSize    bool
	requested []string
}

func (s *fakeService) ListDocuments(ctx context.Context, fileNo string) ([]models.DocumentEntry, error) {
	return nil, nil
}

func (s *fakeService) Compare(ctx context.Context, first, second string) (*service.CompareResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeService) Download(ctx context.Context, path string) (*service.Download, error) {
	s.mu.Lock()
	s.requested = append(s.requested, path)
	s.mu.Unlock()

	body, ok := s.payloads[path]
	if !ok {
		return nil, &models.ServiceError{Status: 404, Message: "Not Found"}
	}
	size := int64(len(body))
	if s.noSize {
		size = -1
	}
	return &service.Download{
		Body:        io.NopCloser(strings.NewReader(body)),
		ContentType: s.types[path],
		Size:        size,
	}, nil
}

func (s *fakeService) DeleteDuplicate(ctx context.Context, id string) error { return nil }

func (s *fakeService) DeleteDuplicatesOfOriginal(ctx context.Context, groupID string) error {
	return nil
}

var (
	testDesc = models.FileDescriptor{FileName: "report.png", Version: "2", DetailsID: "d1"}
	testMeta = models.ContextMetadata{Branch: "HQ", Department: "Legal", Year: "2023", Category: "Contracts"}
)

func TestDownloadPath(t *testing.T) {
	tests := []struct {
		name string
		desc models.FileDescriptor
		meta models.ContextMetadata
		want string
	}{
		{
			name: "all segments",
			desc: testDesc,
			meta: testMeta,
			want: "/documents/download/HQ/Legal/2023/Contracts/2/report.png",
		},
		{
			name: "missing segments",
			desc: models.FileDescriptor{FileName: "a.txt"},
			meta: models.ContextMetadata{Branch: "HQ"},
			want: "/documents/download/HQ/Unknown/Unknown/Unknown/Unknown/a.txt",
		},
		{
			name: "escaped segments",
			desc: models.FileDescriptor{FileName: "q3 report/final.pdf", Version: "1.0"},
			meta: models.ContextMetadata{Branch: "North East", Department: "R&D", Year: "2024", Category: "50%"},
			want: "/documents/download/North%20East/R&D/2024/50%25/1.0/q3%20report%2Ffinal.pdf",
		},
		{
			name: "blank is unknown",
			desc: models.FileDescriptor{FileName: "  "},
			want: "/documents/download/Unknown/Unknown/Unknown/Unknown/Unknown/Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DownloadPath(tt.desc, tt.meta))
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	path := DownloadPath(testDesc, testMeta)
	svc := &fakeService{
		payloads: map[string]string{path: "PNGDATA"},
		types:    map[string]string{path: "image/png"},
	}
	store := storage.NewMemory()
	f := NewFetcher(svc, store, Options{})

	asset, err := f.Fetch(context.Background(), testDesc, testMeta)
	require.NoError(t, err)
	assert.True(t, storage.IsBlobURL(asset.URL))
	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, int64(7), asset.Size)
	assert.Equal(t, []string{path}, svc.requested)

	rc, err := f.Open(context.Background(), asset)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "PNGDATA", string(data))

	require.NoError(t, f.Release(asset))
	require.NoError(t, f.Release(asset))
	assert.Equal(t, 0, store.Len())

	_, err = f.Open(context.Background(), asset)
	assert.ErrorIs(t, err, models.ErrReleased)
}

func TestFetcher_DefaultContentType(t *testing.T) {
	path := DownloadPath(testDesc, testMeta)
	svc := &fakeService{payloads: map[string]string{path: "x"}}
	f := NewFetcher(svc, storage.NewMemory(), Options{})

	asset, err := f.Fetch(context.Background(), testDesc, testMeta)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", asset.ContentType)
}

func TestFetcher_Failure(t *testing.T) {
	f := NewFetcher(&fakeService{}, storage.NewMemory(), Options{})

	asset, err := f.Fetch(context.Background(), testDesc, testMeta)
	assert.Nil(t, asset)
	assert.ErrorIs(t, err, models.ErrPreviewUnavailable)

	var svcErr *models.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 404, svcErr.Status)
}

func TestFetcher_MaxBytes(t *testing.T) {
	path := DownloadPath(testDesc, testMeta)
	payload := string(bytes.Repeat([]byte("a"), 100))

	t.Run("declared size", func(t *testing.T) {
		store := storage.NewMemory()
		f := NewFetcher(&fakeService{payloads: map[string]string{path: payload}}, store, Options{MaxBytes: 10})

		_, err := f.Fetch(context.Background(), testDesc, testMeta)
		assert.ErrorIs(t, err, models.ErrPreviewUnavailable)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("undeclared size", func(t *testing.T) {
		store := storage.NewMemory()
		svc := &fakeService{payloads: map[string]string{path: payload}, noSize: true}
		f := NewFetcher(svc, store, Options{MaxBytes: 10})

		_, err := f.Fetch(context.Background(), testDesc, testMeta)
		assert.ErrorIs(t, err, models.ErrPreviewUnavailable)
		assert.ErrorIs(t, err, errTooLarge)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("exact size", func(t *testing.T) {
		svc := &fakeService{payloads: map[string]string{path: payload}, noSize: true}
		f := NewFetcher(svc, storage.NewMemory(), Options{MaxBytes: 100})

		asset, err := f.Fetch(context.Background(), testDesc, testMeta)
		require.NoError(t, err)
		assert.Equal(t, int64(100), asset.Size)
	})

	t.Run("disabled", func(t *testing.T) {
		svc := &fakeService{payloads: map[string]string{path: payload}}
		f := NewFetcher(svc, storage.NewMemory(), Options{MaxBytes: -1})

		_, err := f.Fetch(context.Background(), testDesc, testMeta)
		assert.NoError(t, err)
	})
}

func TestFetcher_ReleaseNil(t *testing.T) {
	f := NewFetcher(&fakeService{}, storage.NewMemory(), Options{})
	assert.NoError(t, f.Release(nil))

	_, err := f.Open(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrPreviewUnavailable)
}
