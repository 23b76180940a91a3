package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/query"
)

var (
	addFile   string
	addOutput string
)

var addCmd = &cobra.Command{
	Use:   "add [TEXT|URL]",
	Short: "Classify and store text or a web page",
	Long: `Classify text or a web page and store it with its tags.

The input is taken from the argument, from --file, or from stdin when the
argument is "-". Inputs starting with http:// or https:// are fetched and the
page text is classified.

Examples:
  classify add "A quick recipe for lentil soup"
  classify add https://example.com/article
  cat notes.txt | classify add -
  classify add --file notes.txt --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "Read the content from a file")
	addCmd.Flags().StringVarP(&addOutput, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(addCmd)
}

func readAddInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case addFile != "" && len(args) > 0:
		return "", printer.Error("conflicting input", "Pass either an argument or --file, not both.", nil)
	case addFile != "":
		data, err := os.ReadFile(addFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", addFile, err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", printer.Error("no content given", "Pass text or a URL to classify.", []string{"classify add \"some text\"", "classify add https://example.com", "echo text | classify add -"})
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addOutput != "default" && addOutput != "json" {
		return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", addOutput), []string{"Valid formats: default, json"})
	}

	input, err := readAddInput(cmd, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.engine.Classify(ctx, input)
	if err != nil && !(orchestrator.IsPartialWrite(err) && outcome != nil) {
		return classifyError(err, input)
	}

	if addOutput == "json" {
		if err := query.FormatSingleJSON(cmd.OutOrStdout(), outcome.Record); err != nil {
			return err
		}
	} else {
		switch {
		case outcome.Duplicate:
			printer.Warning("Content already classified; showing the stored record\n")
		default:
			printer.Success("Classified and stored\n")
		}
		printer.Record(outcome.Record)
	}

	if err != nil {
		printer.Warning("Stored, but the tag index was not updated: %v\nRun 'classify reindex' to repair.\n", err)
	}
	return nil
}

func classifyError(err error, input string) error {
	kind, _ := orchestrator.KindOf(err)
	switch kind {
	case orchestrator.KindInvalidInput:
		return printer.Error("nothing to classify", "The content is empty.", nil)
	case orchestrator.KindFetch:
		return printer.ErrorWithContext("failed to fetch URL", err.Error(), map[string]string{"URL": strings.TrimSpace(input)}, nil)
	case orchestrator.KindClassifier:
		return printer.Error(
			"classifier failed",
			err.Error(),
			[]string{"Check ANTHROPIC_API_KEY or OPENAI_API_KEY", "Use the offline classifier:\n  CLASSIFIER_TYPE=keyword classify add ..."},
		)
	default:
		return printer.Error("failed to store content", err.Error(), nil)
	}
}
