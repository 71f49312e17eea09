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

package operation

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/huftar/pkg/archive"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ErrUnsafePath is returned for archive entries that would land outside the destination
var ErrUnsafePath = errors.Base("entry escapes destination")

// 📤 ExtractOperation restores the original files from a huftar archive
type ExtractOperation struct {
	BaseOperation
	archivePath string
	dest        string
}

// 🏭 NewExtractOperation creates an extract operation writing into dest
func NewExtractOperation(opts Options, archivePath, dest string) (*ExtractOperation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	if archivePath == "" {
		return nil, errors.Errorf("archive path is required")
	}
	if dest == "" {
		dest = "."
	}
	return &ExtractOperation{
		BaseOperation: base,
		archivePath:   archivePath,
		dest:          filepath.Clean(dest),
	}, nil
}

func (op *ExtractOperation) Name() string { return "extract" }

func (op *ExtractOperation) Execute(ctx context.Context) error {
	start := time.Now()
	logger := zerolog.Ctx(ctx)
	op.Reporter.Start(op.Name(), op.archivePath)

	if err := os.MkdirAll(op.dest, 0755); err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	summary := status.Summary{Operation: op.Name(), Target: op.dest}
	err := archive.Walk(op.archivePath, func(e archive.Entry, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		d, name, ok := compress.DecompressorFor(e.Name)
		if !ok {
			return errors.Errorf("no decompressor for %s", e.Name)
		}
		rel := filepath.FromSlash(name)
		if !filepath.IsLocal(rel) {
			return errors.Errorf("extracting %s: %w", e.Name, ErrUnsafePath)
		}
		target := filepath.Join(op.dest, rel)

		n, err := op.restore(ctx, d, target, e.Mode.Perm(), r)
		if err != nil {
			op.Reporter.File(name, e.Size, 0, status.StateFailed)
			return errors.Errorf("extracting %s: %w", e.Name, err)
		}

		logger.Debug().Str("entry", e.Name).Str("target", target).Int64("size", n).Msg("extracted entry")
		op.Reporter.File(name, e.Size, n, status.StateExtracted)
		summary.Files++
		summary.InputBytes += e.Size
		summary.OutputBytes += n
		return nil
	})
	if err != nil {
		return err
	}

	summary.Duration = time.Since(start)
	op.Reporter.Finish(summary)
	return nil
}

// restore decodes r into target and returns the number of bytes written
func (op *ExtractOperation) restore(ctx context.Context, d compress.Decompressor, target string, perm os.FileMode, r io.Reader) (n int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, errors.Errorf("creating parent directory: %w", err)
	}
	if perm == 0 {
		perm = 0644
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, errors.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing file: %w", cerr)
		}
		if err != nil {
			os.Remove(target)
		}
	}()

	cw := &countingWriter{w: f}
	bw := bufio.NewWriter(cw)
	if err := d.Decompress(ctx, bw, r); err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, errors.Errorf("writing file: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
