package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/query"
)

var (
	getText   bool
	getOutput string
)

var getCmd = &cobra.Command{
	Use:   "get CONTENT_ID",
	Short: "Show one stored record",
	Long: `Show one stored record by ID. Short IDs (at least 6 characters) are accepted.

Examples:
  classify get 3f2b8c
  classify get 3f2b8c --text
  classify get 3f2b8c --output json | jq .tags`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getText, "text", false, "Print only the stored body text")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	if getOutput != "default" && getOutput != "json" {
		return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", getOutput), []string{"Valid formats: default, json"})
	}

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

	if getText {
		body, found, err := a.query.ContentBody(ctx, id)
		if err != nil {
			return printer.Error("failed to read content", err.Error(), nil)
		}
		if !found {
			return printer.Error((&query.NotFoundError{ID: id}).Error(), "The record was removed.", nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), body)
		return nil
	}

	rec, err := a.query.Get(ctx, id)
	if query.IsNotFound(err) {
		return printer.Error(err.Error(), "The record was removed.", nil)
	}
	if err != nil {
		return printer.Error("failed to read content", err.Error(), nil)
	}

	if getOutput == "json" {
		return query.FormatSingleJSON(cmd.OutOrStdout(), rec)
	}
	printer.Record(rec)
	printer.Println()
	printer.Println(rec.Content)
	return nil
}
