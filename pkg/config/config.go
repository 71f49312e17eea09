// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/naming"
	"github.com/walteh/huftar/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// 🗜️ CompressorConfig selects and tunes the per-file compressor
type CompressorConfig struct {
	Kind    string   `json:"kind,omitempty" yaml:"kind,omitempty" hcl:"kind,optional"`          // huff, bzip2 or exec
	Command string   `json:"command,omitempty" yaml:"command,omitempty" hcl:"command,optional"` // Executable for the exec kind
	Args    []string `json:"args,omitempty" yaml:"args,omitempty" hcl:"args,optional"`          // Exec arguments with {src} and {dst}
	Suffix  string   `json:"suffix,omitempty" yaml:"suffix,omitempty" hcl:"suffix,optional"`    // Artifact suffix override
	Level   int      `json:"level,omitempty" yaml:"level,omitempty" hcl:"level,optional"`       // Compression level (bzip2)
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"` // Per-file limit, e.g. "30s"

	timeout time.Duration
}

// 📚 Config represents the complete configuration
type Config struct {
	Compressor *CompressorConfig `json:"compressor,omitempty" yaml:"compressor,omitempty" hcl:"compressor,block"`
	Naming     string            `json:"naming,omitempty" yaml:"naming,omitempty" hcl:"naming,optional"`
	Include    []string          `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	Exclude    []string          `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
	Workers    int               `json:"workers,omitempty" yaml:"workers,omitempty" hcl:"workers,optional"`
	WorkDir    string            `json:"work_dir,omitempty" yaml:"work_dir,omitempty" hcl:"work_dir,optional"`
	GzipLevel  int               `json:"gzip_level,omitempty" yaml:"gzip_level,omitempty" hcl:"gzip_level,optional"`

	location string
}

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Compressor: &CompressorConfig{Kind: compress.KindHuff},
		Naming:     string(naming.Flat),
		Workers:    1,
		GzipLevel:  gzip.DefaultCompression,
	}
}

// Location is the file the config was loaded from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate fills in defaults and checks that the configuration is usable
func Validate(ctx context.Context, cfg *Config) error {
	logger := zerolog.Ctx(ctx)

	if cfg.Compressor == nil {
		cfg.Compressor = &CompressorConfig{}
	}
	if cfg.Compressor.Kind == "" {
		cfg.Compressor.Kind = compress.KindHuff
	}
	if !slices.Contains(compress.Kinds(), cfg.Compressor.Kind) {
		return errors.Errorf("compressor.kind %q is not one of %v", cfg.Compressor.Kind, compress.Kinds())
	}
	if cfg.Compressor.Kind == compress.KindExec && cfg.Compressor.Command == "" {
		return errors.Errorf("compressor.command is required for the exec compressor")
	}
	if cfg.Compressor.Level < 0 || cfg.Compressor.Level > 9 {
		return errors.Errorf("compressor.level must be between 0 and 9 (0 means the default level), got %d", cfg.Compressor.Level)
	}
	if cfg.Compressor.Timeout != "" {
		d, err := time.ParseDuration(cfg.Compressor.Timeout)
		if err != nil {
			return errors.Errorf("parsing compressor.timeout: %w", err)
		}
		if d < 0 {
			return errors.Errorf("compressor.timeout must not be negative")
		}
		cfg.Compressor.timeout = d
	}

	strategy, err := naming.ParseStrategy(cfg.Naming)
	if err != nil {
		return errors.Errorf("validating naming: %w", err)
	}
	cfg.Naming = string(strategy)

	if err := cfg.Filter().Validate(); err != nil {
		return errors.Errorf("validating patterns: %w", err)
	}

	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}

	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = gzip.DefaultCompression
	}
	if cfg.GzipLevel != gzip.DefaultCompression && cfg.GzipLevel != gzip.HuffmanOnly &&
		(cfg.GzipLevel < gzip.BestSpeed || cfg.GzipLevel > gzip.BestCompression) {
		return errors.Errorf("gzip_level must be between %d and %d, got %d", gzip.BestSpeed, gzip.BestCompression, cfg.GzipLevel)
	}

	if cfg.WorkDir != "" {
		info, err := os.Stat(cfg.WorkDir)
		if err != nil {
			return errors.Errorf("checking work_dir: %w", err)
		}
		if !info.IsDir() {
			return errors.Errorf("work_dir %s is not a directory", cfg.WorkDir)
		}
	}

	logger.Debug().Str("config", cfg.String()).Msg("configuration validated")
	return nil
}

// CompressorOptions converts the compressor section into compressor options
func (cfg *Config) CompressorOptions() compress.Options {
	c := cfg.Compressor
	if c == nil {
		c = &CompressorConfig{Kind: compress.KindHuff}
	}
	return compress.Options{
		Kind:    c.Kind,
		Command: c.Command,
		Args:    c.Args,
		Suffix:  c.Suffix,
		Level:   c.Level,
		Timeout: c.timeout,
	}
}

// Filter returns the walk filter built from include and exclude
func (cfg *Config) Filter() walk.Filter {
	return walk.Filter{Include: cfg.Include, Exclude: cfg.Exclude}
}

// NamingStrategy returns the validated naming strategy
func (cfg *Config) NamingStrategy() naming.Strategy {
	return naming.Strategy(cfg.Naming)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	kind := ""
	if cfg.Compressor != nil {
		kind = cfg.Compressor.Kind
		if cfg.Compressor.Command != "" {
			kind += "(" + cfg.Compressor.Command + ")"
		}
	}
	return fmt.Sprintf("compressor=%s naming=%s workers=%d gzip=%d", kind, cfg.Naming, cfg.Workers, cfg.GzipLevel)
}
