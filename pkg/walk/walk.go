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

// Package walk lists the regular files of a directory tree as a lazy sequence.
package walk

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 File is a regular file found under the walk root
type File struct {
	Path    string      // Path on disk, rooted at the walk root
	RelPath string      // Slash-separated path relative to the root
	Size    int64       // Size in bytes
	Mode    fs.FileMode // Permission bits
}

// 🔍 Filter selects files by doublestar patterns matched against RelPath
type Filter struct {
	Include []string // Only files matching one of these are yielded; empty means all
	Exclude []string // Matching files are skipped and matching directories pruned
}

// Validate checks that every pattern is well formed
func (f Filter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid pattern %q", p)
		}
	}
	return nil
}

func (f Filter) excluded(rel string) bool {
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (f Filter) included(rel string) bool {
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// 🚶 Files yields the regular files under root in lexical order.
//
// Symlinks and other non-regular entries are skipped. The first error ends
// the sequence. Breaking out of the loop stops the walk.
func Files(ctx context.Context, root string, filter Filter) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		logger := zerolog.Ctx(ctx)
		root = filepath.Clean(root)

		// WalkDir does not descend into a symlinked root, so walk its target
		// and report paths under root
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(File{}, errors.Errorf("reading root %s: %w", root, err))
			return
		}
		info, err := os.Stat(resolved)
		if err != nil {
			yield(File{}, errors.Errorf("reading root %s: %w", root, err))
			return
		}
		if !info.IsDir() {
			yield(File{}, errors.Errorf("%s is not a directory", root))
			return
		}
		if resolved != root {
			logger.Debug().Str("root", root).Str("target", resolved).Msg("following symlinked root")
		}

		stopped := false
		err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return errors.Errorf("walking %s: %w", path, walkErr)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == resolved {
				return nil
			}

			rel, err := filepath.Rel(resolved, path)
			if err != nil {
				return errors.Errorf("relative path of %s: %w", path, err)
			}
			rel = filepath.ToSlash(rel)

			if filter.excluded(rel) {
				logger.Debug().Str("path", rel).Msg("excluded by pattern")
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				logger.Debug().Str("path", rel).Str("type", d.Type().String()).Msg("skipping non-regular file")
				return nil
			}
			if !filter.included(rel) {
				return nil
			}

			fi, err := d.Info()
			if err != nil {
				return errors.Errorf("stat %s: %w", path, err)
			}

			if !yield(File{Path: filepath.Join(root, filepath.FromSlash(rel)), RelPath: rel, Size: fi.Size(), Mode: fi.Mode().Perm()}, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})

		if err != nil && !stopped {
			yield(File{}, err)
		}
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[File, error]) ([]File, error) {
	var files []File
	for f, err := range seq {
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
