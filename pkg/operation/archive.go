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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/huftar/pkg/archive"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/naming"
	"github.com/walteh/huftar/pkg/status"
	"github.com/walteh/huftar/pkg/walk"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📦 ArchiveOperation compresses every file under a directory and bundles
// the artifacts into <output>.tar.gz
type ArchiveOperation struct {
	BaseOperation
	source string
	output string
}

// 🏭 NewArchiveOperation creates an archive operation for source.
// output is the archive path without the .tar.gz extension.
func NewArchiveOperation(opts Options, source, output string) (*ArchiveOperation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	if base.Compressor == nil {
		return nil, errors.Errorf("compressor is required")
	}
	if source == "" {
		return nil, errors.Errorf("source directory is required")
	}
	if output == "" {
		return nil, errors.Errorf("output name is required")
	}
	return &ArchiveOperation{
		BaseOperation: base,
		source:        filepath.Clean(source),
		output:        output,
	}, nil
}

func (op *ArchiveOperation) Name() string { return "archive" }

// ArchivePath is the file the operation writes
func (op *ArchiveOperation) ArchivePath() string {
	return op.output + archive.Extension
}

// compressed is one slot of the collected-file list
type compressed struct {
	artifact naming.Artifact
	// staged is the artifact's file in the staging directory, named by slot
	// so that entry names never clash on disk
	staged string
	result *compress.Result
}

// 🏃 Execute runs the walk, compress and assemble phases. On failure no
// archive is written and the run's artifacts are removed.
func (op *ArchiveOperation) Execute(ctx context.Context) (err error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = zerolog.Ctx(ctx).With().Str("run", runID).Logger().WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	workDir := op.Config.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	staging := filepath.Join(workDir, "huftar-"+runID)
	if err := os.Mkdir(staging, 0700); err != nil {
		return errors.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil && err == nil {
			err = errors.Errorf("removing staging directory: %w", rmErr)
		}
	}()

	logger.Debug().
		Str("source", op.source).
		Str("archive", op.ArchivePath()).
		Str("staging", staging).
		Msg("archiving directory")
	op.Reporter.Start(op.Name(), op.source)

	items, err := op.compressAll(ctx, staging)
	if err != nil {
		return err
	}

	size, err := op.assemble(ctx, items)
	if err != nil {
		return err
	}

	var in int64
	for _, it := range items {
		in += it.result.InputSize
	}
	op.Reporter.Finish(status.Summary{
		Operation:   op.Name(),
		Target:      op.ArchivePath(),
		Files:       len(items),
		InputBytes:  in,
		OutputBytes: size,
		Duration:    time.Since(start),
	})

	logger.Debug().Int("files", len(items)).Int64("size", size).Msg("archive written")
	return nil
}

// compressAll names and compresses every walked file into staging.
// The returned slots are in walk order whatever the number of workers.
func (op *ArchiveOperation) compressAll(ctx context.Context, staging string) ([]*compressed, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	namer := naming.NewNamer(op.Config.NamingStrategy(), op.Compressor.Suffix())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(op.Config.Workers, 1))

	var items []*compressed
	var stopErr error
	for f, err := range walk.Files(gctx, op.source, op.Config.Filter()) {
		if err != nil {
			stopErr = errors.Errorf("walking %s: %w", op.source, err)
			break
		}

		a, err := namer.Name(f)
		if err != nil {
			stopErr = errors.Errorf("naming %s: %w", f.RelPath, err)
			break
		}

		slot := &compressed{
			artifact: a,
			staged:   filepath.Join(staging, fmt.Sprintf("%06d%s", len(items), op.Compressor.Suffix())),
		}
		items = append(items, slot)
		dst := slot.staged

		g.Go(func() error {
			res, err := op.Compressor.Compress(gctx, a.File.Path, dst)
			if err != nil {
				op.Reporter.File(a.Name, a.File.Size, 0, status.StateFailed)
				return errors.Errorf("compressing %s: %w", a.File.Path, err)
			}
			slot.result = res
			op.Reporter.File(a.Name, res.InputSize, res.OutputSize, status.StateCompressed)
			return nil
		})
	}

	if stopErr != nil {
		cancel()
		// a compressor failure cancels the walk, so report it rather than the cancellation
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, stopErr
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// assemble writes the archive, deleting each artifact once it is added
func (op *ArchiveOperation) assemble(ctx context.Context, items []*compressed) (int64, error) {
	w, err := archive.Create(op.ArchivePath(), op.Config.GzipLevel)
	if err != nil {
		return 0, errors.Errorf("creating archive: %w", err)
	}
	defer w.Abort()

	logger := zerolog.Ctx(ctx)
	for i, it := range items {
		src := it.staged
		if err := w.AddFile(ctx, src, it.artifact.Name); err != nil {
			return 0, errors.Errorf("adding %s: %w", it.artifact.Name, err)
		}
		if err := os.Remove(src); err != nil {
			return 0, errors.Errorf("removing artifact %s: %w", it.artifact.Name, err)
		}
		logger.Trace().Str("artifact", it.artifact.Name).Msg(status.FormatProgress(i+1, len(items)))
	}

	if err := w.Close(); err != nil {
		return 0, errors.Errorf("finishing archive: %w", err)
	}

	info, err := os.Stat(w.Path())
	if err != nil {
		return 0, errors.Errorf("stat archive: %w", err)
	}
	return info.Size(), nil
}
