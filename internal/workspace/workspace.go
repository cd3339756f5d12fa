package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"content_integrity/internal/config"
)

const (
	BaseDirName    = ".content-integrity"
	ConfigFileName = "config.yaml"
	DBFileName     = "integrity.db"
)

func EnsureDefault() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return EnsureAt(filepath.Join(home, BaseDirName))
}

// EnsureAt creates the workspace layout under base and writes a default config file
// if none exists yet. An existing config is never overwritten.
func EnsureAt(base string) (string, error) {
	paths := []string{
		filepath.Join(base, "configs"),
		filepath.Join(base, "projects"),
	}

	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", p, err)
		}
	}

	configPath := ConfigPath(base)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		raw, marshalErr := yaml.Marshal(config.DefaultSettings())
		if marshalErr != nil {
			return "", fmt.Errorf("marshal config: %w", marshalErr)
		}
		if writeErr := os.WriteFile(configPath, raw, 0o644); writeErr != nil {
			return "", fmt.Errorf("write config: %w", writeErr)
		}
	}

	return base, nil
}

func ConfigPath(root string) string {
	return filepath.Join(root, "configs", ConfigFileName)
}

func DBPath(root string) string {
	return filepath.Join(root, DBFileName)
}
