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

// Package archive reads and writes gzip-compressed tar archives.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Extension is appended to output base names
const Extension = ".tar.gz"

// Perm is the mode of a finished archive
const Perm os.FileMode = 0644

// 📦 Writer writes a tar.gz archive through a temporary file that is
// renamed into place on Close.
type Writer struct {
	path    string
	tmpPath string
	file    *os.File
	buf     *bufio.Writer
	gz      *gzip.Writer
	tw      *tar.Writer
	entries int
	done    bool
}

// 🏭 Create starts a new archive at path. level is a gzip level; zero selects the default.
func Create(path string, level int) (*Writer, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}

	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.Errorf("creating temp archive: %w", err)
	}
	// CreateTemp opens 0600
	if err := f.Chmod(Perm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Errorf("setting archive mode: %w", err)
	}

	buf := bufio.NewWriter(f)
	gz, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Errorf("creating gzip writer: %w", err)
	}

	return &Writer{
		path:    path,
		tmpPath: f.Name(),
		file:    f,
		buf:     buf,
		gz:      gz,
		tw:      tar.NewWriter(gz),
	}, nil
}

// Path is the final archive location
func (w *Writer) Path() string { return w.path }

// Entries is the number of entries written so far
func (w *Writer) Entries() int { return w.entries }

// ➕ AddFile adds the regular file src under the entry name name
func (w *Writer) AddFile(ctx context.Context, src, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("%s is not a regular file", src)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.Errorf("building header for %s: %w", src, err)
	}
	hdr.Name = filepath.ToSlash(name)
	hdr.Format = tar.FormatPAX

	if err := w.tw.WriteHeader(hdr); err != nil {
		return errors.Errorf("writing header for %s: %w", name, err)
	}
	if _, err := io.Copy(w.tw, f); err != nil {
		return errors.Errorf("writing %s: %w", name, err)
	}
	w.entries++

	zerolog.Ctx(ctx).Debug().Str("entry", hdr.Name).Int64("size", hdr.Size).Msg("added archive entry")
	return nil
}

// ✅ Close finishes the tar and gzip streams and renames the archive into place
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.tw.Close(); err != nil {
		w.discard()
		return errors.Errorf("closing tar stream: %w", err)
	}
	if err := w.gz.Close(); err != nil {
		w.discard()
		return errors.Errorf("closing gzip stream: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		w.discard()
		return errors.Errorf("flushing archive: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.discard()
		return errors.Errorf("syncing archive: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return errors.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return errors.Errorf("renaming archive into place: %w", err)
	}
	return nil
}

// 🗑️ Abort drops the partially written archive. It is a no-op after Close.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.discard()
}

func (w *Writer) discard() {
	w.file.Close()
	os.Remove(w.tmpPath)
}

// 📄 Entry describes one archive member
type Entry struct {
	Name    string
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// 🚶 Walk calls fn for every regular file entry of the archive at path.
// r is only valid until fn returns.
func Walk(path string, fn func(e Entry, r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return errors.Errorf("reading gzip header: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Errorf("reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		e := Entry{
			Name:    hdr.Name,
			Size:    hdr.Size,
			Mode:    hdr.FileInfo().Mode(),
			ModTime: hdr.ModTime,
		}
		if err := fn(e, tr); err != nil {
			return err
		}
	}
}

// 📋 List returns the regular file entries of the archive at path
func List(path string) ([]Entry, error) {
	entries := []Entry{}
	err := Walk(path, func(e Entry, _ io.Reader) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
