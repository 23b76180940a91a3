package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/printer"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the tag index from stored content",
	Long: `Rebuild the tag index from stored content.

Re-adds the tags of every stored record, and removes index entries that point
at records which no longer exist. Use it after a warning that the tag index was
not updated, or after restoring content from a backup.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	printer.Step("Rebuilding tag index...\n")
	result, err := a.engine.Reindex(ctx)
	if err != nil {
		return printer.Error("reindex failed", err.Error(), nil)
	}

	printer.Success("Reindexed %d record(s)\n", result.Records)
	if result.Pruned > 0 {
		printer.Info("  Pruned %d stale reference(s)\n", result.Pruned)
	}
	if len(result.RemovedTags) > 0 {
		printer.Info("  Removed tags: %s\n", printer.Tags(result.RemovedTags))
	}
	if result.Corrupt > 0 {
		printer.Warning("%d record(s) could not be read and were skipped\n", result.Corrupt)
	}
	return nil
}
