package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/classify/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// EnvExampleFile is written next to classify.yml.
const EnvExampleFile = ".env.example"

// DataDir holds local content when the filesystem or sqlite store is used.
const DataDir = "data"

// Initialize writes a default classify.yml, a .env.example and the data
// directory into dir. If force is true, existing files are overwritten.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, DataDir, "content"), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := writeFiles(files); err != nil {
		return err
	}

	return validateCreatedFiles(dir)
}

// handleForce removes an existing classify.yml. Stored content is never touched.
func handleForce(dir string) error {
	path := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFile)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFile, err)
		}
	}
	return nil
}

func getTemplateFiles(dir string) ([]FileInfo, error) {
	configYml, err := templatesFS.ReadFile("templates/classify.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read classify.yml template: %w", err)
	}

	envExample, err := templatesFS.ReadFile("templates/env.example.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read .env.example template: %w", err)
	}

	return []FileInfo{
		{Path: filepath.Join(dir, config.DefaultFile), Content: configYml, Permissions: 0644},
		{Path: filepath.Join(dir, EnvExampleFile), Content: envExample, Permissions: 0600},
	}, nil
}

func writeFiles(files []FileInfo) error {
	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// validateCreatedFiles checks that the written classify.yml loads cleanly.
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, config.DefaultFile), false); err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFile, err)
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized classify!")
	fmt.Println("\nCreated:")
	fmt.Printf("  ✓ %s\n", config.DefaultFile)
	fmt.Printf("  ✓ %s\n", EnvExampleFile)
	fmt.Printf("  ✓ %s/content/\n", DataDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Copy .env.example to .env and set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	fmt.Println("  2. Start Redis for the tag index (redis://127.0.0.1:6379 by default)")
	fmt.Println("  3. Run 'classify serve' or 'classify add <text|url>'")
}
