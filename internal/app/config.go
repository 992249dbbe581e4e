package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/commentd/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "commentd"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# commentd configuration
# Run: commentd --help

# Optional: override the SQLite database location.
# Can also be set via COMMENTD_DB_PATH or --db-path.
# db_path: ~/.config/commentd/commentd.db

# Optional: default page size for listings and rendering (default 50).
# page_size: 50

# Optional: default view mode, "threaded" or "flat".
# default_mode: threaded

# Optional: render cache entry lifetime in seconds (default 600).
# render_cache_ttl_seconds: 600
`
