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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/naming"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml_full",
			filename: "huftar.yaml",
			config: `
compressor:
  kind: exec
  command: ./huf
  args: ["{src}", "{dst}"]
  timeout: 30s
naming: relative
include:
  - "**/*.txt"
exclude:
  - ".git"
workers: 4
gzip_level: 9
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, compress.KindExec, cfg.Compressor.Kind)
				assert.Equal(t, "./huf", cfg.Compressor.Command)
				assert.Equal(t, []string{"{src}", "{dst}"}, cfg.Compressor.Args)
				assert.Equal(t, naming.Relative, cfg.NamingStrategy())
				assert.Equal(t, []string{"**/*.txt"}, cfg.Include)
				assert.Equal(t, []string{".git"}, cfg.Exclude)
				assert.Equal(t, 4, cfg.Workers)
				assert.Equal(t, gzip.BestCompression, cfg.GzipLevel)

				opts := cfg.CompressorOptions()
				assert.Equal(t, 30*time.Second, opts.Timeout)
				assert.Equal(t, "./huf", opts.Command)
			},
		},
		{
			name:     "yaml_empty_uses_defaults",
			filename: "huftar.yml",
			config:   "",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, compress.KindHuff, cfg.Compressor.Kind)
				assert.Equal(t, naming.Flat, cfg.NamingStrategy())
				assert.Equal(t, 1, cfg.Workers)
				assert.Equal(t, gzip.DefaultCompression, cfg.GzipLevel)
			},
		},
		{
			name:     "hcl",
			filename: "huftar.hcl",
			config: `
naming  = "relative"
workers = 2
exclude = ["**/*.tmp"]

compressor {
  kind  = "bzip2"
  level = 9
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, compress.KindBzip2, cfg.Compressor.Kind)
				assert.Equal(t, 9, cfg.Compressor.Level)
				assert.Equal(t, naming.Relative, cfg.NamingStrategy())
				assert.Equal(t, 2, cfg.Workers)
				assert.Equal(t, []string{"**/*.tmp"}, cfg.Exclude)
			},
		},
		{
			name:     "hcl_without_compressor_block",
			filename: "huftar.hcl",
			config:   `workers = 3`,
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Compressor)
				assert.Equal(t, compress.KindHuff, cfg.Compressor.Kind)
			},
		},
		{
			name:     "json",
			filename: "huftar.json",
			config:   `{"compressor": {"kind": "huff", "suffix": ".hf"}, "naming": "flat"}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".hf", cfg.Compressor.Suffix)
				assert.Equal(t, naming.Flat, cfg.NamingStrategy())
			},
		},
		{
			name:        "yaml_unknown_field",
			filename:    "huftar.yaml",
			config:      "compresser:\n  kind: huff\n",
			errContains: "parsing YAML",
		},
		{
			name:        "json_unknown_field",
			filename:    "huftar.json",
			config:      `{"workerz": 2}`,
			errContains: "parsing JSON",
		},
		{
			name:        "invalid_hcl",
			filename:    "huftar.hcl",
			config:      `workers = `,
			errContains: "parsing HCL",
		},
		{
			name:        "unsupported_extension",
			filename:    "huftar.toml",
			config:      `workers = 1`,
			errContains: "unsupported file extension",
		},
		{
			name:        "unknown_compressor",
			filename:    "huftar.yaml",
			config:      "compressor:\n  kind: zstd\n",
			errContains: "compressor.kind",
		},
		{
			name:        "exec_without_command",
			filename:    "huftar.yaml",
			config:      "compressor:\n  kind: exec\n",
			errContains: "compressor.command is required",
		},
		{
			name:        "bad_timeout",
			filename:    "huftar.yaml",
			config:      "compressor:\n  timeout: soon\n",
			errContains: "parsing compressor.timeout",
		},
		{
			name:        "bad_naming",
			filename:    "huftar.yaml",
			config:      "naming: hashed\n",
			errContains: "unknown naming strategy",
		},
		{
			name:        "bad_pattern",
			filename:    "huftar.yaml",
			config:      "exclude: ['[oops']\n",
			errContains: "invalid pattern",
		},
		{
			name:        "negative_workers",
			filename:    "huftar.yaml",
			config:      "workers: -2\n",
			errContains: "workers must be positive",
		},
		{
			name:        "bad_gzip_level",
			filename:    "huftar.yaml",
			config:      "gzip_level: 11\n",
			errContains: "gzip_level must be between",
		},
		{
			name:        "bad_compressor_level",
			filename:    "huftar.yaml",
			config:      "compressor:\n  kind: bzip2\n  level: 10\n",
			errContains: "compressor.level must be between 0 and 9 (0 means the default level)",
		},
		{
			name:        "missing_work_dir",
			filename:    "huftar.yaml",
			config:      "work_dir: /definitely/not/here\n",
			errContains: "checking work_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0644))

			cfg, err := LoadConfig(testContext(t), path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, path, cfg.Location())
			tt.check(t, cfg)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("defaults_when_nothing_found", func(t *testing.T) {
		cfg, err := Resolve(testContext(t), "", t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Location())
		assert.Equal(t, compress.KindHuff, cfg.Compressor.Kind)
		assert.Equal(t, naming.Flat, cfg.NamingStrategy())
	})

	t.Run("finds_default_file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".huftar.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0644))

		cfg, err := Resolve(testContext(t), "", dir)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Location())
		assert.Equal(t, 3, cfg.Workers)
	})

	t.Run("explicit_path_must_exist", func(t *testing.T) {
		_, err := Resolve(testContext(t), filepath.Join(t.TempDir(), "missing.yaml"), ".")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}
