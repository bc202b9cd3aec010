package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/fsutil"
)

// UserConfigPath returns the per-user configuration path
// (~/.config/jira-agent/config.yaml).
func UserConfigPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is left untouched unless force is set.
func WriteDefaultConfig(path string, force bool) (bool, error) {
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return false, nil
	} else if statErr != nil && !os.IsNotExist(statErr) {
		return false, fmt.Errorf("checking config: %w", statErr)
	}

	data, err := DefaultConfigYAML()
	if err != nil {
		return false, fmt.Errorf("rendering default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}
