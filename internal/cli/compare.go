package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/doccompare/internal/platform"
	"github.com/sdejongh/doccompare/pkg/compare"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/output"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/preview"
	"github.com/sdejongh/doccompare/pkg/render"
	"github.com/sdejongh/doccompare/pkg/selection"
	"github.com/sdejongh/doccompare/pkg/viewer"
)

// CompareFlags holds compare command flags
type CompareFlags struct {
	FirstGroup  string
	SecondGroup string
	First       []string
	Second      []string
	Tab         string
	TextMode    string
	Threshold   float64
	Opacity     float64
	Overlay     bool
	ImageOut    string
	DiffReport  string
	DiffFormat  string
}

var compareFlags CompareFlags

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two documents",
		Long: `Select two documents from one or two file groups and compare them.

Documents are picked by details id, either two from the same group or one
from each. The comparison is shown on one tab: preview, differences,
visualDiff (images only) or textDiff (text only).

Exit status is 0 when the documents are identical, 1 when they differ,
2 on failure and 3 when authentication fails.`,
		RunE: runCompare,
	}

	cmd.Flags().StringVar(&compareFlags.FirstGroup, "first-group", "", "file number of the first pool (required)")
	cmd.Flags().StringVar(&compareFlags.SecondGroup, "second-group", "", "file number of the second pool (default: first group)")
	cmd.MarkFlagRequired("first-group")

	cmd.Flags().StringArrayVar(&compareFlags.First, "first", nil, "details id to select in the first pool (repeatable)")
	cmd.Flags().StringArrayVar(&compareFlags.Second, "second", nil, "details id to select in the second pool (repeatable)")

	cmd.Flags().StringVar(&compareFlags.Tab, "tab", string(viewer.TabDifferences), "tab to show: preview, differences, visualDiff, textDiff")
	cmd.Flags().StringVar(&compareFlags.TextMode, "text-mode", "", "text diff mode: full, differences")
	cmd.Flags().Float64Var(&compareFlags.Threshold, "threshold", 0, "pixel diff threshold, 5 to 100 in steps of 5 (default from config)")
	cmd.Flags().Float64Var(&compareFlags.Opacity, "opacity", -1, "overlay opacity, 0 to 1 (default from config)")
	cmd.Flags().BoolVar(&compareFlags.Overlay, "overlay", false, "show the overlay instead of the pixel diff on the visualDiff tab")
	cmd.Flags().StringVar(&compareFlags.ImageOut, "image-out", "", "write the visualDiff image to this PNG file or directory")
	cmd.Flags().StringVar(&compareFlags.DiffReport, "diff-report", "", "write differences report to file")
	cmd.Flags().StringVar(&compareFlags.DiffFormat, "diff-format", "human", "differences report format: human, json, html")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tab, err := viewer.ParseTab(compareFlags.Tab)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	// Build both pools and apply the selection
	manager := selection.NewManager(selection.WithWarningTTL(a.cfg.Selection.WarningTTL))
	if err := loadPools(ctx, a, manager); err != nil {
		return a.fail(err)
	}
	if err := selectDocuments(manager); err != nil {
		return a.fail(err)
	}

	snap := manager.Snapshot()
	orchestrator := compare.NewOrchestrator(a.svc, a.fetcher, a.logger)
	outcome, err := orchestrator.Compare(ctx, snap)
	if err != nil {
		return a.fail(err)
	}

	modal := viewer.NewModal(a.fetcher, viewSettings(a), a.logger)
	if err := modal.Open(outcome); err != nil {
		orchestrator.Release(outcome)
		return a.fail(err)
	}
	defer modal.Close()

	if err := modal.SetTab(tab); err != nil {
		return a.fail(fmt.Errorf("%w (available: %v)", err, modal.Tabs()))
	}

	view := output.ComparisonView{
		Outcome:       outcome,
		Tab:           modal.Tab(),
		Tabs:          modal.Tabs(),
		TextMode:      modal.Settings().TextMode,
		DownloadPaths: downloadPaths(snap, outcome.Result),
	}

	if tab == viewer.TabVisualDiff {
		if err := renderVisual(ctx, a, modal, &view); err != nil {
			return a.fail(err)
		}
	}

	if a.cfg.Output.Format == "html" {
		err = render.NewHTML().Page(a.out, outcome.Result, view.TextMode)
	} else {
		err = a.formatter.Comparison(view)
	}
	if err != nil {
		return fmt.Errorf("failed to render comparison: %w", err)
	}

	// Write differences report if requested
	if compareFlags.DiffReport != "" {
		if err := output.WriteDifferencesReport(outcome.Result, compareFlags.DiffReport, compareFlags.DiffFormat, view.TextMode); err != nil {
			return fmt.Errorf("failed to write differences report: %w", err)
		}
	}

	if !outcome.Result.Identical {
		return ErrDifferences
	}
	return nil
}

// loadPools fills the first and second pools from their file groups
func loadPools(ctx context.Context, a *app, manager *selection.Manager) error {
	first, err := a.svc.ListDocuments(ctx, compareFlags.FirstGroup)
	if err != nil {
		return fmt.Errorf("failed to list group %s: %w", compareFlags.FirstGroup, err)
	}
	manager.SetGroup(selection.First, compareFlags.FirstGroup, first)

	secondGroup := compareFlags.SecondGroup
	if secondGroup == "" || secondGroup == compareFlags.FirstGroup {
		manager.SetGroup(selection.Second, compareFlags.FirstGroup, first)
		return nil
	}

	second, err := a.svc.ListDocuments(ctx, secondGroup)
	if err != nil {
		return fmt.Errorf("failed to list group %s: %w", secondGroup, err)
	}
	manager.SetGroup(selection.Second, secondGroup, second)
	return nil
}

// selectDocuments toggles every requested id on; the first rejection stops
func selectDocuments(manager *selection.Manager) error {
	for _, id := range compareFlags.First {
		if err := manager.Toggle(selection.First, id); err != nil {
			return err
		}
	}
	for _, id := range compareFlags.Second {
		if err := manager.Toggle(selection.Second, id); err != nil {
			return err
		}
	}
	return nil
}

// viewSettings merges command flags over the configured diff defaults
func viewSettings(a *app) viewer.Settings {
	settings := viewer.Settings{
		Threshold: a.cfg.Diff.Threshold,
		Opacity:   a.cfg.Diff.OverlayOpacity,
		TextMode:  render.ModeFull,
	}
	if compareFlags.Threshold > 0 {
		settings.Threshold = pixeldiff.NormalizeThreshold(compareFlags.Threshold)
	}
	if compareFlags.Opacity >= 0 {
		settings.Opacity = compareFlags.Opacity
	}
	if compareFlags.TextMode != "" {
		settings.TextMode = render.ParseMode(compareFlags.TextMode)
	}
	return settings
}

// renderVisual computes the pixel diff or the overlay and optionally writes it out
func renderVisual(ctx context.Context, a *app, modal *viewer.Modal, view *output.ComparisonView) error {
	var asset *models.PreviewAsset
	if compareFlags.Overlay {
		_, overlayAsset, err := modal.Overlay(ctx, a.store)
		if err != nil {
			return err
		}
		asset = overlayAsset
		view.Overlay = true
		view.Opacity = modal.Settings().Opacity
	} else {
		frame, frameAsset, err := modal.VisualDiff(ctx, a.store)
		if err != nil {
			return err
		}
		asset = frameAsset
		view.Frame = &frame
	}

	if compareFlags.ImageOut == "" || asset == nil {
		return nil
	}

	name := "visual-diff.png"
	if compareFlags.Overlay {
		name = "overlay.png"
	}
	path := platform.OutputPath(compareFlags.ImageOut, name)
	if err := copyBlob(ctx, a, asset, path); err != nil {
		return err
	}
	view.ImagePath = path
	return nil
}

// copyBlob writes a stored asset to a file
func copyBlob(ctx context.Context, a *app, asset *models.PreviewAsset, path string) error {
	src, err := a.store.Open(ctx, asset.URL)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return dst.Close()
}

// downloadPaths builds the fallback download paths of both compared documents
func downloadPaths(snap selection.Snapshot, result *models.ComparisonResult) [2]string {
	firstID, secondID, err := snap.Pair()
	if err != nil {
		return [2]string{}
	}
	left, _ := snap.Lookup(firstID)
	right, _ := snap.Lookup(secondID)
	return [2]string{
		preview.DownloadPath(result.LeftFile, left.Context()),
		preview.DownloadPath(result.RightFile, right.Context()),
	}
}
