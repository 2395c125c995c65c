package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDocumentsCommand creates the documents command
func NewDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Browse document groups",
	}

	cmd.AddCommand(newDocumentsListCommand())

	return cmd
}

func newDocumentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE_NO",
		Short: "List the documents of a file group",
		Long: `List the document entries of a file-number group. The details ids shown
are the ids accepted by compare --first and --second.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.svc.ListDocuments(ctx, args[0])
			if err != nil {
				return a.fail(fmt.Errorf("failed to list documents: %w", err))
			}

			return a.formatter.Documents(args[0], entries)
		},
	}
}
