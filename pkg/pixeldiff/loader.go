package pixeldiff

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	// Decoders for the image formats handled by the preview tabs
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/sdejongh/doccompare/pkg/storage"
)

// Loader resolves an image reference to a decoded image
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, ref string) (image.Image, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context, ref string) (image.Image, error) {
	return f(ctx, ref)
}

// BlobLoader decodes images held in a blob store
type BlobLoader struct {
	Store storage.BlobStore
}

// Load opens and decodes a blob reference
func (l BlobLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	rc, err := l.Store.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

// FileLoader decodes images from the local filesystem
type FileLoader struct{}

// Load opens and decodes a file path
func (FileLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes any registered image format
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
