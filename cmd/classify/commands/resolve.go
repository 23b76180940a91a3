package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/classify/internal/printer"
	"github.com/dyluth/classify/internal/resolver"
)

// resolveID expands a short ID and turns resolver errors into printed CLI errors.
func resolveID(ctx context.Context, a *app, shortID string) (string, error) {
	fullID, err := resolver.ResolveContentID(ctx, a.query, shortID)
	if err == nil {
		return fullID, nil
	}

	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("content with ID '%s' not found", shortID),
			"No stored record matches this ID.",
			[]string{"List stored content:\n  classify list"},
		)
	}
	if ambErr, ok := err.(*resolver.AmbiguousError); ok {
		return "", printer.Error(
			fmt.Sprintf("ambiguous ID '%s'", shortID),
			resolver.FormatAmbiguousError(ambErr),
			nil,
		)
	}
	return "", printer.Error("failed to resolve ID", err.Error(), nil)
}
