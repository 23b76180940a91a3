package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/classify/internal/config"
)

// CheckExisting returns an error if dir already holds a classify.yml.
func CheckExisting(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, config.DefaultFile)); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'classify init --force' to reinitialize (this will overwrite existing configuration)",
			config.DefaultFile)
	}
	return nil
}
