// Package config loads layr's settings from a JSON file in the data
// directory, with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const FileName = "config.json"

type Config struct {
	DataDir   string          `json:"-"`
	Storage   StorageConfig   `json:"storage"`
	Generator GeneratorConfig `json:"generator"`
	Editor    EditorConfig    `json:"editor"`
	Retention RetentionConfig `json:"retention"`
}

// StorageConfig selects the project store. Driver is sqlite, postgres,
// mysql or mongodb. An empty DSN with sqlite means layr.db in the data dir.
type StorageConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	// HistoryDSN is the SQLite file for undo journals, settings and MCP
	// approvals when Driver is mongodb. Empty means layr.db in the data dir.
	HistoryDSN string `json:"historyDsn,omitempty"`
}

// GeneratorConfig picks the screen generator. Kind is gemini or service.
type GeneratorConfig struct {
	Kind    string   `json:"kind"`
	URL     string   `json:"url"`
	Model   string   `json:"model"`
	Timeout Duration `json:"timeout"`
	// APIKey is normally left empty and read from the keychain or env.
	APIKey string `json:"apiKey,omitempty"`
}

type EditorConfig struct {
	DefaultZoom  float64 `json:"defaultZoom"`
	StickyTools  bool    `json:"stickyTools"`
	Platform     string  `json:"platform"`
	HistoryLimit int     `json:"historyLimit"`
	WatchFiles   bool    `json:"watchFiles"`
}

// RetentionConfig schedules pruning of old undo history. An empty
// Schedule disables it.
type RetentionConfig struct {
	Schedule string   `json:"schedule"`
	MaxAge   Duration `json:"maxAge"`
}

// Duration is a time.Duration written as a string ("90s", "720h").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or seconds: %s", b)
		}
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when no file exists.
func Default(dataDir string) *Config {
	return &Config{
		DataDir: dataDir,
		Storage: StorageConfig{Driver: "sqlite"},
		Generator: GeneratorConfig{
			Kind:    "gemini",
			URL:     "http://localhost:5000/api/generate-ui",
			Model:   "gemini-2.5-flash",
			Timeout: Duration(2 * time.Minute),
		},
		Editor: EditorConfig{
			DefaultZoom:  0.85,
			Platform:     "mobile",
			HistoryLimit: 20,
			WatchFiles:   true,
		},
		Retention: RetentionConfig{
			Schedule: "@daily",
			MaxAge:   Duration(30 * 24 * time.Hour),
		},
	}
}

// DefaultDataDir is ~/.local/share/layr, or LAYR_DATA_DIR when set.
func DefaultDataDir() string {
	if d := os.Getenv("LAYR_DATA_DIR"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "layr")
}

// Load reads dataDir/config.json, writing the defaults there when the file
// is missing, then applies environment overrides.
func Load(dataDir string) (*Config, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(dataDir, FileName)
	cfg := Default(dataDir)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Save writes the config to its data directory.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.DataDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// SQLitePath is the default database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "layr.db")
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Driver, "LAYR_DB_DRIVER")
	set(&c.Storage.DSN, "LAYR_DB_DSN")
	set(&c.Generator.Kind, "LAYR_GENERATOR")
	set(&c.Generator.URL, "LAYR_GENERATOR_URL")
	set(&c.Generator.Model, "LAYR_MODEL")
	if v := getenv("LAYR_STICKY_TOOLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Editor.StickyTools = b
		}
	}
}
