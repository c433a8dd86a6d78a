// Package config loads oneway.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultMessageSuffix is appended to outgoing messages unless the config
// sets message_suffix.
const DefaultMessageSuffix = "\n\n- sent via https://oneway.sudomakes.art"

// Config represents oneway.toml.
type Config struct {
	MessageSuffix string       `toml:"message_suffix"`
	Sync          SyncConfig   `toml:"sync"`
	Search        SearchConfig `toml:"search"`
}

// SyncConfig tunes sync passes.
type SyncConfig struct {
	WindowDays int     `toml:"window_days"`
	PageSize   int     `toml:"page_size"`
	FetchRate  float64 `toml:"fetch_rate"` // page fetches per second, 0 = unlimited
	Background bool    `toml:"background"`
}

// SearchConfig tunes search.
type SearchConfig struct {
	Limit int `toml:"limit"`
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() *Config {
	return &Config{
		MessageSuffix: DefaultMessageSuffix,
		Sync: SyncConfig{
			WindowDays: 30,
			PageSize:   100,
			FetchRate:  5,
		},
		Search: SearchConfig{Limit: 20},
	}
}

// Load reads the first existing file among paths over the defaults and
// returns it with the path it came from. Keys absent from the file keep
// their defaults. If no file exists, the defaults and an empty path are
// returned.
func Load(paths []string) (*Config, string, error) {
	cfg := Defaults()
	for _, p := range paths {
		if p == "" {
			continue
		}
		md, err := toml.DecodeFile(p, cfg)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, p, fmt.Errorf("parse %s: %w", p, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, p, fmt.Errorf("%s: unknown keys: %s", p, strings.Join(keys, ", "))
		}
		if err := cfg.Validate(); err != nil {
			return nil, p, fmt.Errorf("%s: %w", p, err)
		}
		return cfg, p, nil
	}
	return cfg, "", nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Sync.WindowDays <= 0:
		return fmt.Errorf("sync.window_days must be positive, got %d", c.Sync.WindowDays)
	case c.Sync.PageSize <= 0:
		return fmt.Errorf("sync.page_size must be positive, got %d", c.Sync.PageSize)
	case c.Sync.FetchRate < 0:
		return fmt.Errorf("sync.fetch_rate must not be negative, got %g", c.Sync.FetchRate)
	case c.Search.Limit <= 0:
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
