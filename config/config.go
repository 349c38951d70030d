// Package config declares the on-disk settings lakota's CLI and
// server entry points load before opening a Repo: which pod URIs to
// open, the codec, segment sizing and GC grace settings, and logging
// verbosity. Documents
// are YAML (gopkg.in/yaml.v2); any field a document omits falls back
// to its declared default (creasty/defaults).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"

	"github.com/bertrandchenal/lakota/codec"
	"github.com/bertrandchenal/lakota/segment"
	"github.com/bertrandchenal/lakota/series"
)

// Config is the top-level settings document for a lakota deployment.
type Config struct {
	// Pods lists the URIs (see pod/uri.go) opened, in order, to build
	// the repo's root Pod. A single entry is the common case; several
	// entries compose into a cached chain, fastest first.
	Pods []string `yaml:"pods"`

	// EmbedMaxSize overrides segment.EmbedMaxSize when non-zero.
	EmbedMaxSize int `yaml:"embed_max_size" default:"256"`

	// Codec names the default compression codec new segments are
	// written with ("snappy" or "raw").
	Codec string `yaml:"codec" default:"snappy"`

	// MaxSegmentRows bounds how many rows a single segment write holds:
	// a frame longer than this is sliced into several segments sharing
	// one revision, so one oversized write doesn't produce one
	// unbounded object.
	MaxSegmentRows int `yaml:"max_segment_rows" default:"100000"`

	// GCGraceSeconds is how long a buried, unreferenced segment must
	// stay buried before GC hard-deletes it.
	GCGraceSeconds int `yaml:"gc_grace_seconds" default:"86400"`

	// LogLevel names a logrus level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level" default:"info"`
}

// Default returns a Config with every field set to its declared
// default, for callers constructing a Collection or Repo without
// loading one from disk.
func Default() *Config {
	c := &Config{}
	defaults.Set(c)
	return c
}

// Load reads and parses a Config from path, filling any field the
// document omits with its declared default, and applies its codec
// choice as the process-wide codec.Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config: setting defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(c.Pods) == 0 {
		return nil, fmt.Errorf("config: %s declares no pods", path)
	}
	if err := codec.SetDefault(c.Codec); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

// SegmentOptions resolves c's codec and embed threshold into the
// segment.Options every Write call in a collection built from c uses.
func (c *Config) SegmentOptions() (segment.Options, error) {
	cd, err := codec.ByIdentity(c.Codec)
	if err != nil {
		return segment.Options{}, fmt.Errorf("config: codec: %w", err)
	}
	embed := c.EmbedMaxSize
	if embed <= 0 {
		embed = segment.EmbedMaxSize
	}
	return segment.Options{EmbedMaxSize: embed, Codec: cd}, nil
}

// MaxRows resolves c's segment row-count target, falling back to
// series.DefaultMaxRows when unset.
func (c *Config) MaxRows() int {
	if c.MaxSegmentRows <= 0 {
		return series.DefaultMaxRows
	}
	return c.MaxSegmentRows
}

// GCGrace resolves c's GC grace period as a time.Duration.
func (c *Config) GCGrace() time.Duration {
	if c.GCGraceSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.GCGraceSeconds) * time.Second
}
