package viewer

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/doccompare/pkg/compare"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/overlay"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/storage"
)

// VisualDiff renders the pixel diff of the shown previews at the current threshold.
// When the diff succeeds its PNG is stored and owned by the visual tab. If the
// tab is left while rendering, the PNG is released and ErrTabUnavailable returned.
func (m *Modal) VisualDiff(ctx context.Context, store storage.BlobStore) (pixeldiff.Frame, *models.PreviewAsset, error) {
	in, err := m.visualInputs()
	if err != nil {
		return pixeldiff.Frame{}, nil, err
	}

	frame := pixeldiff.Render(ctx, pixeldiff.BlobLoader{Store: store}, pixeldiff.Request{
		LeftURL:   in.left.URL,
		RightURL:  in.right.URL,
		Threshold: in.settings.Threshold,
	})
	if !frame.OK() {
		return frame, nil, nil
	}

	asset, err := m.store(ctx, store, frame.Image, in)
	return frame, asset, err
}

// Overlay composes the right preview over the left one at the current opacity.
// The PNG is stored and owned by the visual tab.
func (m *Modal) Overlay(ctx context.Context, store storage.BlobStore) (*image.RGBA, *models.PreviewAsset, error) {
	in, err := m.visualInputs()
	if err != nil {
		return nil, nil, err
	}

	loader := pixeldiff.BlobLoader{Store: store}
	var base, top image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = loader.Load(gctx, in.left.URL)
		return err
	})
	g.Go(func() (err error) {
		top, err = loader.Load(gctx, in.right.URL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrPreviewUnavailable, err)
	}

	img := overlay.Compose(base, top, in.settings.Opacity)
	asset, err := m.store(ctx, store, img, in)
	return img, asset, err
}

// visualRender is the modal state a visual render started from
type visualRender struct {
	outcome     *compare.Outcome
	tab         Tab
	left, right *models.PreviewAsset
	settings    Settings
}

// visualInputs captures both previews when the visual tab is active
func (m *Modal) visualInputs() (visualRender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return visualRender{}, models.ErrModalClosed
	}
	if m.tab != TabVisualDiff {
		return visualRender{}, fmt.Errorf("%s is not active: %w", TabVisualDiff, models.ErrTabUnavailable)
	}
	if m.outcome.LeftPreview == nil || m.outcome.RightPreview == nil {
		return visualRender{}, models.ErrPreviewUnavailable
	}
	return visualRender{
		outcome:  m.outcome,
		tab:      m.tab,
		left:     m.outcome.LeftPreview,
		right:    m.outcome.RightPreview,
		settings: m.settings,
	}, nil
}

func (m *Modal) store(ctx context.Context, store storage.BlobStore, img image.Image, in visualRender) (*models.PreviewAsset, error) {
	var buf bytes.Buffer
	if err := pixeldiff.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	info, err := store.Put(ctx, "image/png", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to store rendered image: %w", err)
	}
	asset := &models.PreviewAsset{URL: info.URL, ContentType: info.ContentType, Size: info.Size}
	if err := m.adoptFor(in.outcome, in.tab, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// StoreReleaser releases assets directly from a blob store
type StoreReleaser struct {
	Store storage.BlobStore
}

// Release frees the asset's blob
func (r StoreReleaser) Release(asset *models.PreviewAsset) error {
	if asset == nil {
		return nil
	}
	return r.Store.Release(asset.URL)
}
