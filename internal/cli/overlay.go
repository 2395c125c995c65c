package cli

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/doccompare/internal/platform"
	"github.com/sdejongh/doccompare/pkg/overlay"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
)

// OverlayFlags holds overlay command flags
type OverlayFlags struct {
	Opacity float64
	Out     string
}

var overlayFlags OverlayFlags

// NewOverlayCommand creates the overlay command
func NewOverlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay BASE TOP",
		Short: "Compose one local image over another",
		Long: `Draw TOP over BASE at the given opacity. The result keeps the size of BASE.`,
		Args:  cobra.ExactArgs(2),
		RunE:  runOverlay,
	}

	cmd.Flags().Float64Var(&overlayFlags.Opacity, "opacity", -1, "opacity of the top image, 0 to 1 (default from config)")
	cmd.Flags().StringVar(&overlayFlags.Out, "out", "overlay.png", "output PNG file or directory")

	return cmd
}

func runOverlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newLocalApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	var base, top image.Image
	loader := pixeldiff.FileLoader{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = loader.Load(gctx, args[0])
		return err
	})
	g.Go(func() (err error) {
		top, err = loader.Load(gctx, args[1])
		return err
	})
	if err := g.Wait(); err != nil {
		return a.fail(fmt.Errorf("failed to load images: %w", err))
	}

	compositor := overlay.NewCompositor(base, top)
	compositor.SetOpacity(a.cfg.Diff.OverlayOpacity)
	if overlayFlags.Opacity >= 0 {
		compositor.SetOpacity(overlayFlags.Opacity)
	}

	path := platform.OutputPath(overlayFlags.Out, "overlay.png")
	file, err := os.Create(path)
	if err != nil {
		return a.fail(fmt.Errorf("failed to create %s: %w", path, err))
	}
	if err := pixeldiff.EncodePNG(file, compositor.Render()); err != nil {
		file.Close()
		return a.fail(err)
	}
	if err := file.Close(); err != nil {
		return a.fail(err)
	}

	return a.formatter.Message(fmt.Sprintf("Overlay at opacity %.2f written to %s", compositor.Opacity(), path))
}
