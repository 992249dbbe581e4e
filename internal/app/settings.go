package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath                string `yaml:"db_path"`
	PageSize              int    `yaml:"page_size"`
	DefaultMode           string `yaml:"default_mode"`
	RenderCacheTTLSeconds int    `yaml:"render_cache_ttl_seconds"`
}

// DisplaySettings are effective runtime values used by listing and rendering.
type DisplaySettings struct {
	PageSize       int           `json:"page_size"`
	DefaultMode    string        `json:"default_mode"`
	RenderCacheTTL time.Duration `json:"render_cache_ttl"`
}

const (
	defaultPageSize       = 50
	defaultMode           = "threaded"
	defaultRenderCacheTTL = 10 * time.Minute
)

// EffectiveDisplaySettings returns validated display settings with defaults.
// Invalid or missing config values fall back to safe defaults.
func EffectiveDisplaySettings() DisplaySettings {
	cfg := DisplaySettings{
		PageSize:       defaultPageSize,
		DefaultMode:    defaultMode,
		RenderCacheTTL: defaultRenderCacheTTL,
	}

	s, err := LoadSettings()
	if err != nil {
		return cfg
	}

	if s.PageSize > 0 {
		cfg.PageSize = s.PageSize
	}
	if s.DefaultMode == "threaded" || s.DefaultMode == "flat" {
		cfg.DefaultMode = s.DefaultMode
	}
	if s.RenderCacheTTLSeconds > 0 {
		cfg.RenderCacheTTL = time.Duration(s.RenderCacheTTLSeconds) * time.Second
	}

	if cfg.PageSize > 1000 {
		cfg.PageSize = 1000
	}
	return cfg
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// dbPathOverrideMu and dbPathOverride implement a mutex-protected process-wide override for CLI --db-path.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	dbPathOverride = path
	dbPathOverrideMu.Unlock()
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	v := dbPathOverride
	dbPathOverrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/commentd/config.yaml
// 2) /etc/commentd/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/commentd/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "commentd", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
