package commands

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/query"
)

var tagsJSON bool

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every known tag",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

func init() {
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Print tags as a JSON array")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.query.AllTags(ctx)
	if err != nil {
		return printer.Error("failed to list tags", err.Error(), nil)
	}

	if tagsJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(tags)
	}
	query.FormatTagList(cmd.OutOrStdout(), tags)
	return nil
}
