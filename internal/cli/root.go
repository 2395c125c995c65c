package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the doccompare command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doccompare",
		Short: "Compare versioned documents",
		Long: `doccompare compares two versions of a document held by the document
comparison service. It lists file groups, compares a selected pair, shows
the structural differences side by side and highlights the differing pixels
of images.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewDocumentsCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewDownloadCommand())
	rootCmd.AddCommand(NewPixelDiffCommand())
	rootCmd.AddCommand(NewOverlayCommand())
	rootCmd.AddCommand(NewDuplicatesCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
