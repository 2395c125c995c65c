package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/doccompare/internal/platform"
	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/output"
	"github.com/sdejongh/doccompare/pkg/selection"
)

// DownloadFlags holds download command flags
type DownloadFlags struct {
	Group string
	ID    string
	Out   string
}

var downloadFlags DownloadFlags

// NewDownloadCommand creates the download command
func NewDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a document",
		Long: `Download the payload of one document of a file group. This is the
fallback when a preview cannot be shown.`,
		RunE: runDownload,
	}

	cmd.Flags().StringVar(&downloadFlags.Group, "group", "", "file number of the group (required)")
	cmd.Flags().StringVar(&downloadFlags.ID, "id", "", "details id of the document (required)")
	cmd.Flags().StringVar(&downloadFlags.Out, "out", ".", "destination file or directory")
	cmd.MarkFlagRequired("group")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := platform.ValidatePath(downloadFlags.Out); err != nil {
		return err
	}

	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.svc.ListDocuments(ctx, downloadFlags.Group)
	if err != nil {
		return a.fail(fmt.Errorf("failed to list group %s: %w", downloadFlags.Group, err))
	}

	manager := selection.NewManager()
	manager.SetGroup(selection.First, downloadFlags.Group, entries)
	entry, ok := manager.Pool(selection.First).Find(downloadFlags.ID)
	if !ok {
		return a.fail(fmt.Errorf("document %s not found in group %s", downloadFlags.ID, downloadFlags.Group))
	}

	dl, err := a.fetcher.Download(ctx, entry.Descriptor(), entry.Context())
	if err != nil {
		return a.fail(fmt.Errorf("failed to download %s: %w", entry.DisplayName(), err))
	}
	defer dl.Body.Close()

	name := platform.SafeFileName(entry.DisplayName(), entry.DetailsID)
	path := platform.OutputPath(downloadFlags.Out, name)

	written, err := writeDownload(path, name, dl.Body, dl.Size, a.cfg.Output.Quiet)
	if err != nil {
		return a.fail(err)
	}

	a.logger.Info(ctx, "Document downloaded", logging.Fields{
		"details_id": entry.DetailsID,
		"path":       path,
		"bytes":      written,
	})
	if a.formatter.Name() == "json" {
		return a.formatter.Message(fmt.Sprintf("downloaded %s to %s", entry.DisplayName(), path))
	}
	return nil
}

// writeDownload copies body to path behind a progress bar on stderr
func writeDownload(path, name string, body io.Reader, size int64, quiet bool) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	var progressOut io.Writer = os.Stderr
	if quiet {
		progressOut = nil
	}
	progress := output.NewDownloadProgress(progressOut, name, size)

	written, err := io.Copy(file, progress.Wrap(body))
	if err != nil {
		file.Close()
		os.Remove(path)
		return written, fmt.Errorf("failed to write %s: %w", path, err)
	}
	progress.Finish(written)

	return written, file.Close()
}
