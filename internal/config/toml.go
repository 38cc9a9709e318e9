// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API      APIConfig       `toml:"api"`
	Output   OutputConfig    `toml:"output"`
	Cache    CacheConfig     `toml:"cache"`
	Segments []SegmentConfig `toml:"segments"`
}

// APIConfig maps API access settings.
type APIConfig struct {
	Token   *string `toml:"token"`
	BaseURL *string `toml:"base-url"`
	Timeout *string `toml:"timeout"`
	PerPage *int    `toml:"per-page"`
}

// OutputConfig maps rendering settings.
type OutputConfig struct {
	Format *string `toml:"format"`
	Sort   *string `toml:"sort"`
}

// CacheConfig maps athlete cache settings.
type CacheConfig struct {
	Enabled *bool   `toml:"enabled"`
	TTL     *string `toml:"ttl"`
}

// SegmentConfig is one [[segments]] entry.
type SegmentConfig struct {
	Label  string `toml:"label"`
	Title  string `toml:"title"`
	ID     int64  `toml:"id"`
	Points int    `toml:"points"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, &model.ConfigurationError{Msg: "failed to decode " + path, Err: err}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, model.Configurationf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// TimeoutValue parses api.timeout. ok is false when it is unset.
func (c FileConfig) TimeoutValue() (d time.Duration, ok bool, err error) {
	return parseDuration("api.timeout", c.API.Timeout)
}

// CacheTTLValue parses cache.ttl. ok is false when it is unset.
func (c FileConfig) CacheTTLValue() (d time.Duration, ok bool, err error) {
	return parseDuration("cache.ttl", c.Cache.TTL)
}

func parseDuration(key string, value *string) (time.Duration, bool, error) {
	if value == nil {
		return 0, false, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return 0, false, &model.ConfigurationError{Msg: fmt.Sprintf("%s %q is not a duration", key, *value), Err: err}
	}
	if d < 0 {
		return 0, false, model.Configurationf("%s must not be negative", key)
	}
	return d, true, nil
}

// SegmentTable returns the configured segments, or the built-in table when none
// are configured. The result is validated.
func (c FileConfig) SegmentTable() (segment.Table, error) {
	if len(c.Segments) == 0 {
		return segment.Default(), nil
	}
	table := make(segment.Table, 0, len(c.Segments))
	for _, s := range c.Segments {
		table = append(table, segment.Segment{
			Label:  strings.TrimSpace(s.Label),
			Title:  strings.TrimSpace(s.Title),
			ID:     s.ID,
			Points: s.Points,
		})
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
