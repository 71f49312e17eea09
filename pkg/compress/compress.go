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

// Package compress turns single source files into compressed artifacts.
package compress

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🗜️ Compressor produces one artifact per source file
type Compressor interface {
	// Kind is the registry name of the compressor
	Kind() string
	// Suffix is appended to a source name to form its artifact name
	Suffix() string
	// Compress writes the artifact for src at dst. A non-nil Result is
	// returned whenever the compressor ran, even if it failed.
	Compress(ctx context.Context, src, dst string) (*Result, error)
}

// 📤 Decompressor restores the original bytes of an artifact
type Decompressor interface {
	Decompress(ctx context.Context, w io.Writer, r io.Reader) error
}

// 📊 Result records the outcome of compressing one file
type Result struct {
	Source     string        // Path of the source file
	Artifact   string        // Path of the produced artifact
	ExitCode   int           // Exit status, always 0 for in-process compressors
	Stderr     string        // Captured standard error of external tools
	InputSize  int64         // Source size in bytes
	OutputSize int64         // Artifact size in bytes
	Duration   time.Duration // Wall time spent compressing
}

// Ratio returns the artifact size relative to the source size
func (r *Result) Ratio() float64 {
	if r.InputSize == 0 {
		return 0
	}
	return float64(r.OutputSize) / float64(r.InputSize)
}

// 🔧 Options configures a compressor
type Options struct {
	Kind    string        // Registry name (huff, bzip2, exec)
	Command string        // Executable for the exec kind
	Args    []string      // Arguments for the exec kind, with {src} and {dst} placeholders
	Suffix  string        // Artifact suffix override
	Level   int           // Compression level for kinds that support one
	Timeout time.Duration // Per-file limit, zero for none
}

// Factory builds a compressor from options
type Factory func(opts Options) (Compressor, error)

var (
	factories     = map[string]Factory{}
	decompressors = map[string]Decompressor{}
)

// 📝 Register makes a compressor kind available to New
func Register(kind string, f Factory) {
	factories[kind] = f
}

// 📝 RegisterDecompressor makes artifacts with the given suffix decodable
func RegisterDecompressor(suffix string, d Decompressor) {
	decompressors[suffix] = d
}

// Kinds lists the registered compressor kinds
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// 🏭 New creates the compressor registered under opts.Kind
func New(opts Options) (Compressor, error) {
	f, ok := factories[opts.Kind]
	if !ok {
		return nil, errors.Errorf("unknown compressor kind %q (available: %s)", opts.Kind, strings.Join(Kinds(), ", "))
	}
	c, err := f(opts)
	if err != nil {
		return nil, errors.Errorf("creating %s compressor: %w", opts.Kind, err)
	}
	return c, nil
}

// 🔍 DecompressorFor finds the decompressor for an artifact name and
// returns the name with the suffix removed.
func DecompressorFor(name string) (Decompressor, string, bool) {
	for suffix, d := range decompressors {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return d, strings.TrimSuffix(name, suffix), true
		}
	}
	return nil, "", false
}
