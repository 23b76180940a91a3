package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/printer"
)

var deleteCmd = &cobra.Command{
	Use:   "delete CONTENT_ID",
	Short: "Delete a record and its tag index entries",
	Long: `Delete a stored record and remove it from the tag index.

Tags left with no content are removed from the tag list. Short IDs (at least
6 characters) are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveID(ctx, a, args[0])
	if err != nil {
		return err
	}

	result, err := a.engine.Delete(ctx, id)
	if err != nil && !(orchestrator.IsPartialWrite(err) && result != nil) {
		return printer.Error("failed to delete content", err.Error(), nil)
	}

	if !result.Found {
		// Removed between resolving and deleting
		printer.Info("Content %s was already deleted\n", id)
		return nil
	}

	printer.Success("Deleted %s\n", id)
	if len(result.RemovedTags) > 0 {
		printer.Info("  Removed tags: %s\n", printer.Tags(result.RemovedTags))
	}
	if err != nil {
		printer.Warning("Tag index cleanup incomplete: %v\nRun 'classify reindex' to repair.\n", err)
	}
	return nil
}
