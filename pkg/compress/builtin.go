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

package compress

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/rs/zerolog"
	"github.com/walteh/huftar/pkg/huff"
	"gitlab.com/tozd/go/errors"
)

const (
	KindHuff  = "huff"
	KindBzip2 = "bzip2"

	SuffixHuff  = ".huff"
	SuffixBzip2 = ".bz2"
)

func init() {
	Register(KindHuff, func(opts Options) (Compressor, error) {
		return &huffCompressor{suffix: suffixOr(opts.Suffix, SuffixHuff)}, nil
	})
	Register(KindBzip2, func(opts Options) (Compressor, error) {
		if opts.Level < 0 || opts.Level > 9 {
			return nil, errors.Errorf("bzip2 level must be between 0 and 9 (0 means the default level), got %d", opts.Level)
		}
		return &bzip2Compressor{suffix: suffixOr(opts.Suffix, SuffixBzip2), level: opts.Level}, nil
	})

	RegisterDecompressor(SuffixHuff, huffDecompressor{})
	RegisterDecompressor(SuffixBzip2, bzip2Decompressor{})
}

func suffixOr(suffix, def string) string {
	if suffix == "" {
		return def
	}
	return suffix
}

// 🌳 huffCompressor encodes files in-process with the huff codec
type huffCompressor struct {
	suffix string
}

func (c *huffCompressor) Kind() string   { return KindHuff }
func (c *huffCompressor) Suffix() string { return c.suffix }

func (c *huffCompressor) Compress(ctx context.Context, src, dst string) (*Result, error) {
	return compressFile(ctx, src, dst, func(w io.Writer, r *os.File) error {
		return huff.Encode(w, r)
	})
}

type huffDecompressor struct{}

func (huffDecompressor) Decompress(ctx context.Context, w io.Writer, r io.Reader) error {
	return huff.Decode(w, r)
}

// 📦 bzip2Compressor writes a bzip2 stream per file
type bzip2Compressor struct {
	suffix string
	level  int
}

func (c *bzip2Compressor) Kind() string   { return KindBzip2 }
func (c *bzip2Compressor) Suffix() string { return c.suffix }

func (c *bzip2Compressor) Compress(ctx context.Context, src, dst string) (*Result, error) {
	return compressFile(ctx, src, dst, func(w io.Writer, r *os.File) error {
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: c.level})
		if err != nil {
			return errors.Errorf("creating bzip2 writer: %w", err)
		}
		if _, err := io.Copy(bw, r); err != nil {
			bw.Close()
			return errors.Errorf("compressing: %w", err)
		}
		return bw.Close()
	})
}

type bzip2Decompressor struct{}

func (bzip2Decompressor) Decompress(ctx context.Context, w io.Writer, r io.Reader) error {
	br, err := bzip2.NewReader(r, nil)
	if err != nil {
		return errors.Errorf("creating bzip2 reader: %w", err)
	}
	defer br.Close()
	if _, err := io.Copy(w, br); err != nil {
		return errors.Errorf("decompressing: %w", err)
	}
	return nil
}

// compressFile runs encode from src into a freshly created dst and fills in the result.
// dst is removed if encoding fails.
func compressFile(ctx context.Context, src, dst string, encode func(w io.Writer, r *os.File) error) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("compressing %s: %w", src, err)
	}

	start := time.Now()
	result := &Result{Source: src, Artifact: dst}

	in, err := os.Open(src)
	if err != nil {
		return nil, errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, errors.Errorf("stat source: %w", err)
	}
	result.InputSize = info.Size()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, errors.Errorf("creating artifact directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return nil, errors.Errorf("creating artifact: %w", err)
	}

	if err := encode(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return result, errors.Errorf("encoding %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return result, errors.Errorf("closing artifact: %w", err)
	}

	outInfo, err := os.Stat(dst)
	if err != nil {
		return result, errors.Errorf("stat artifact: %w", err)
	}
	result.OutputSize = outInfo.Size()
	result.Duration = time.Since(start)

	zerolog.Ctx(ctx).Debug().
		Str("source", src).
		Str("artifact", dst).
		Int64("in", result.InputSize).
		Int64("out", result.OutputSize).
		Msg("compressed file")

	return result, nil
}
