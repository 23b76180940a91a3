package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/query"
	"github.com/dyluth/classify/internal/timespec"
)

var (
	listOutputFormat string
	listSince        string
	listUntil        string
	listTags         string
	listLimit        int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored content, newest first",
	Long: `List stored content, newest first.

Output Formats:
  default - Human-readable table with ID, tags, age and body
  jsonl   - Line-delimited JSON, one record per line
  json    - A single JSON array

Filters:
  --tags   - Records carrying any of these tags (comma separated)
  --since  - Created after this time (duration like 2h or 7d, or RFC3339)
  --until  - Created before this time

Examples:
  classify list --tags cooking,travel
  classify list --since 7d --output jsonl | jq -r .id`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default, jsonl or json")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show records created after time (duration or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Show records created before time (duration or RFC3339)")
	listCmd.Flags().StringVarP(&listTags, "tags", "t", "", "Only records carrying any of these tags (comma separated)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "Maximum number of records (0 = no limit)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := query.ParseOutputFormat(listOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl, json"})
	}

	since, until, err := timespec.ParseRange(listSince, listUntil, time.Now())
	if err != nil {
		return printer.Error("invalid time filter", err.Error(), nil)
	}

	if listLimit < 0 {
		return printer.Error("invalid limit", fmt.Sprintf("--limit must be >= 0, got %d", listLimit), nil)
	}

	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tags := query.ParseTagList(listTags)
	records, err := a.query.Search(ctx, query.Filter{Since: since, Until: until, Tags: tags, Limit: listLimit})
	if err != nil {
		return printer.Error("failed to list content", err.Error(), nil)
	}

	title := "Stored content"
	if len(tags) > 0 {
		title = "Content tagged " + printer.Tags(tags)
	}
	return query.WriteRecords(cmd.OutOrStdout(), records, format, title)
}
