// Package config holds the memoryd configuration surface: storage paths,
// trigger policy, and oracle settings, loadable from a yaml file with
// environment fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	// DatabasePath is the SQLite message ledger location.
	DatabasePath string `yaml:"database_path"`

	// MemoryDir holds the per-category markdown files.
	MemoryDir string `yaml:"memory_dir"`

	Reflection ReflectionConfig `yaml:"reflection"`
	Oracle     OracleConfig     `yaml:"oracle"`
}

// ReflectionConfig configures the consolidation trigger policy.
type ReflectionConfig struct {
	// TimeIntervalSec is the elapsed-time trigger (default: 300)
	TimeIntervalSec int `yaml:"time_interval"`

	// MessageThreshold is the unprocessed-count trigger (default: 5)
	MessageThreshold int `yaml:"message_threshold"`

	// PollTickSec is the fixed scheduler check cadence (default: 10)
	PollTickSec int `yaml:"poll_tick"`

	// BatchLimit caps messages consumed per run (default: 20)
	BatchLimit int `yaml:"batch_limit"`

	// DuplicateThreshold is the similarity ratio above which a candidate
	// fact is dropped as a near-duplicate (default: 0.85)
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`

	// OracleTimeoutSec bounds the extraction call per run (default: 60)
	OracleTimeoutSec int `yaml:"oracle_timeout"`
}

// OracleConfig configures the Gemini-backed extraction oracle.
type OracleConfig struct {
	// Model name (default: gemini-2.0-flash)
	Model string `yaml:"model"`

	// APIKey; falls back to GOOGLE_API_KEY then GEMINI_API_KEY.
	APIKey string `yaml:"api_key"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		DatabasePath: "",
		MemoryDir:    "",
		Reflection: ReflectionConfig{
			TimeIntervalSec:    300,
			MessageThreshold:   5,
			PollTickSec:        10,
			BatchLimit:         20,
			DuplicateThreshold: 0.85,
			OracleTimeoutSec:   60,
		},
		Oracle: OracleConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// Load reads a yaml config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// TimeInterval returns the elapsed-time trigger as a duration.
func (r ReflectionConfig) TimeInterval() time.Duration {
	return time.Duration(r.TimeIntervalSec) * time.Second
}

// PollTick returns the poll cadence as a duration.
func (r ReflectionConfig) PollTick() time.Duration {
	return time.Duration(r.PollTickSec) * time.Second
}

// OracleTimeout returns the per-run extraction bound as a duration.
func (r ReflectionConfig) OracleTimeout() time.Duration {
	return time.Duration(r.OracleTimeoutSec) * time.Second
}

// ResolveAPIKey returns the configured key or the environment fallback.
func (o OracleConfig) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}
