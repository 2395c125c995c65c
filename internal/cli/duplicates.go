package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/doccompare/pkg/logging"
)

// NewDuplicatesCommand creates the duplicates command
func NewDuplicatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Remove duplicate documents",
	}

	cmd.AddCommand(newDuplicatesDeleteCommand())
	cmd.AddCommand(newDuplicatesDeleteOriginalCommand())

	return cmd
}

func newDuplicatesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one duplicate document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(cmd, "Duplicate deleted", args[0], func(ctx context.Context, a *app) error {
				return a.svc.DeleteDuplicate(ctx, args[0])
			})
		},
	}
}

func newDuplicatesDeleteOriginalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-original GROUP_ID",
		Short: "Delete every duplicate of an original document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(cmd, "Duplicates of original deleted", args[0], func(ctx context.Context, a *app) error {
				return a.svc.DeleteDuplicatesOfOriginal(ctx, args[0])
			})
		},
	}
}

func runDuplicates(cmd *cobra.Command, done, id string, del func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := del(ctx, a); err != nil {
		return a.fail(fmt.Errorf("failed to delete %s: %w", id, err))
	}

	a.logger.Info(ctx, done, logging.Fields{"id": id})
	return a.formatter.Message(fmt.Sprintf("%s: %s", done, id))
}
