package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr           string   `json:"addr" yaml:"addr" toml:"addr"`
	VendorDir      string   `json:"vendor_dir" yaml:"vendor_dir" toml:"vendor_dir"`
	FetchTimeoutMS int      `json:"fetch_timeout_ms" yaml:"fetch_timeout_ms" toml:"fetch_timeout_ms"`
	WaitTimeoutMS  int      `json:"wait_timeout_ms" yaml:"wait_timeout_ms" toml:"wait_timeout_ms"`
	SettleMS       int      `json:"settle_ms" yaml:"settle_ms" toml:"settle_ms"`
	CacheEntries   int      `json:"cache_entries" yaml:"cache_entries" toml:"cache_entries"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	AllowOrigins   []string `json:"allow_origins" yaml:"allow_origins" toml:"allow_origins"`

	// Resources overlays the builtin catalog, keyed by resource id. A known
	// id overrides only the fields set here; an unknown id defines a new
	// asset and must carry family, kind and a primary url.
	Resources map[string]Resource `json:"resources" yaml:"resources" toml:"resources"`
}

// Resource is one catalog overlay entry.
type Resource struct {
	Family    string   `json:"family" yaml:"family" toml:"family"`
	Kind      string   `json:"kind" yaml:"kind" toml:"kind"`
	Primary   string   `json:"primary" yaml:"primary" toml:"primary"`
	Fallbacks []string `json:"fallbacks" yaml:"fallbacks" toml:"fallbacks"`
	Local     string   `json:"local" yaml:"local" toml:"local"`
	Priority  string   `json:"priority" yaml:"priority" toml:"priority"`
	Gated     *bool    `json:"gated" yaml:"gated" toml:"gated"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
