package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/doccompare/internal/platform"
	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
)

// PixelDiffFlags holds pixeldiff command flags
type PixelDiffFlags struct {
	Threshold float64
	Out       string
}

var pixelDiffFlags PixelDiffFlags

// NewPixelDiffCommand creates the pixeldiff command
func NewPixelDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixeldiff LEFT RIGHT",
		Short: "Highlight the differing pixels of two local images",
		Long: `Compare two image files pixel by pixel over their overlapping area and
write the left image with every differing pixel highlighted in red.

Exit status is 0 when no pixel differs and 1 otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: runPixelDiff,
	}

	cmd.Flags().Float64Var(&pixelDiffFlags.Threshold, "threshold", 0, "color distance threshold, 5 to 100 in steps of 5 (default from config)")
	cmd.Flags().StringVar(&pixelDiffFlags.Out, "out", "pixeldiff.png", "output PNG file or directory")

	return cmd
}

func runPixelDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newLocalApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	threshold := a.cfg.Diff.Threshold
	if pixelDiffFlags.Threshold > 0 {
		threshold = pixelDiffFlags.Threshold
	}

	var (
		mu    sync.Mutex
		frame pixeldiff.Frame
	)
	engine := pixeldiff.NewEngine(pixeldiff.FileLoader{}, func(f pixeldiff.Frame) {
		mu.Lock()
		frame = f
		mu.Unlock()
	}, a.logger)
	defer engine.Stop()

	engine.Submit(ctx, pixeldiff.Request{LeftURL: args[0], RightURL: args[1], Threshold: threshold})
	engine.Wait()

	mu.Lock()
	result := frame
	mu.Unlock()

	if !result.OK() {
		if result.Caption == "" {
			result.Caption = pixeldiff.CaptionLoadFailed
		}
		return a.fail(fmt.Errorf("%s", result.Caption))
	}

	path := platform.OutputPath(pixelDiffFlags.Out, "pixeldiff.png")
	if err := writePNG(path, result); err != nil {
		return a.fail(err)
	}

	a.logger.Info(ctx, "Pixel diff written", logging.Fields{
		"left":      args[0],
		"right":     args[1],
		"threshold": result.Threshold,
		"different": result.Stats.Different,
		"path":      path,
	})
	a.formatter.Message(fmt.Sprintf("%dx%d compared at threshold %.0f: %s of %s pixels differ (%.2f%%), written to %s",
		result.Stats.Width, result.Stats.Height, result.Threshold,
		humanize.Comma(int64(result.Stats.Different)), humanize.Comma(int64(result.Stats.Pixels())),
		result.Stats.Ratio()*100, path))

	if result.Stats.Different > 0 {
		return ErrDifferences
	}
	return nil
}

func writePNG(path string, frame pixeldiff.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := pixeldiff.EncodePNG(file, frame.Image); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
