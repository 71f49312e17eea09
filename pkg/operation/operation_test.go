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

package operation_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/huftar/pkg/archive"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/config"
	"github.com/walteh/huftar/pkg/huff"
	"github.com/walteh/huftar/pkg/naming"
	"github.com/walteh/huftar/pkg/operation"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔧 mockCompressor is a mock implementation of compress.Compressor
type mockCompressor struct {
	mock.Mock
}

func (m *mockCompressor) Kind() string   { return m.Called().String(0) }
func (m *mockCompressor) Suffix() string { return m.Called().String(0) }

func (m *mockCompressor) Compress(ctx context.Context, src, dst string) (*compress.Result, error) {
	args := m.Called(ctx, src, dst)
	res, _ := args.Get(0).(*compress.Result)
	return res, args.Error(1)
}

// 📝 recorder collects reporter events
type recorder struct {
	mu       sync.Mutex
	files    []string
	states   []status.State
	summary  status.Summary
	finished bool
}

func (r *recorder) Start(string, string) {}

func (r *recorder) File(name string, _, _ int64, state status.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, name)
	r.states = append(r.states, state)
}

func (r *recorder) Finish(s status.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = s
	r.finished = true
}

type testEnv struct {
	ctx     context.Context
	cfg     *config.Config
	src     string
	out     string
	workDir string
}

// 🧪 createTestEnv creates a source tree from files and a validated config
func createTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "d")
	require.NoError(t, os.MkdirAll(src, 0755))
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	workDir := filepath.Join(tmpDir, "work")
	require.NoError(t, os.MkdirAll(workDir, 0755))

	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	cfg := config.Default()
	cfg.WorkDir = workDir
	require.NoError(t, config.Validate(ctx, cfg))

	return &testEnv{
		ctx:     ctx,
		cfg:     cfg,
		src:     src,
		out:     filepath.Join(tmpDir, "out"),
		workDir: workDir,
	}
}

func (e *testEnv) archive(t *testing.T, rep status.Reporter) (*operation.ArchiveOperation, error) {
	t.Helper()
	c, err := compress.New(e.cfg.CompressorOptions())
	require.NoError(t, err)
	op, err := operation.NewArchiveOperation(operation.Options{Config: e.cfg, Compressor: c, Reporter: rep}, e.src, e.out)
	require.NoError(t, err)
	return op, op.Execute(e.ctx)
}

func entryNames(t *testing.T, path string) []string {
	t.Helper()
	entries, err := archive.List(path)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

// assertNoArtifacts checks that no .huff file survives in any of dirs
func assertNoArtifacts(t *testing.T, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			assert.False(t, strings.HasSuffix(path, compress.SuffixHuff), "leftover artifact %s", path)
			return nil
		})
		require.NoError(t, err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory should be removed")
}

func TestArchiveExample(t *testing.T) {
	env := createTestEnv(t, map[string]string{
		"a.txt":     "hello hello hello",
		"sub/b.txt": "world",
	})
	rep := &recorder{}

	op, err := env.archive(t, rep)
	require.NoError(t, err)

	assert.Equal(t, env.out+".tar.gz", op.ArchivePath())
	assert.Equal(t, []string{"a.txt.huff", "b.txt.huff"}, entryNames(t, op.ArchivePath()))

	// entries decode back to the originals
	got := map[string]string{}
	err = archive.Walk(op.ArchivePath(), func(e archive.Entry, r io.Reader) error {
		var buf bytes.Buffer
		if err := huff.Decode(&buf, r); err != nil {
			return err
		}
		got[e.Name] = buf.String()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt.huff": "hello hello hello", "b.txt.huff": "world"}, got)

	assertNoArtifacts(t, env.src, env.workDir)
	assertEmptyDir(t, env.workDir)

	assert.True(t, rep.finished)
	assert.Equal(t, 2, rep.summary.Files)
	assert.Equal(t, int64(len("hello hello hello")+len("world")), rep.summary.InputBytes)
	assert.Equal(t, []status.State{status.StateCompressed, status.StateCompressed}, rep.states)
}

func TestArchiveEmptyDirectory(t *testing.T) {
	env := createTestEnv(t, nil)

	op, err := env.archive(t, nil)
	require.NoError(t, err)

	assert.Empty(t, entryNames(t, op.ArchivePath()))
	assertEmptyDir(t, env.workDir)
}

func TestArchiveCollision(t *testing.T) {
	env := createTestEnv(t, map[string]string{
		"a/x.txt": "one",
		"b/x.txt": "two",
	})

	op, err := env.archive(t, nil)
	require.Error(t, err)

	var collision *naming.CollisionError
	require.True(t, errors.As(err, &collision), "want CollisionError, got %v", err)
	assert.Equal(t, "x.txt.huff", collision.Name)
	assert.Equal(t, "a/x.txt", collision.First)
	assert.Equal(t, "b/x.txt", collision.Second)

	assert.NoFileExists(t, op.ArchivePath())
	assertEmptyDir(t, env.workDir)
}

func TestArchiveRelativeNaming(t *testing.T) {
	env := createTestEnv(t, map[string]string{
		"a/x.txt": "one",
		"b/x.txt": "two",
	})
	env.cfg.Naming = string(naming.Relative)

	op, err := env.archive(t, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a/x.txt.huff", "b/x.txt.huff"}, entryNames(t, op.ArchivePath()))
	assertEmptyDir(t, env.workDir)
}

// a file's artifact name can be a directory prefix of another entry
func TestArchiveRelativeNamingFileAndDirectoryPrefix(t *testing.T) {
	files := map[string]string{
		"a":        "file",
		"a.huff/x": "nested",
	}
	env := createTestEnv(t, files)
	env.cfg.Naming = string(naming.Relative)

	aop, err := env.archive(t, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.huff", "a.huff/x.huff"}, entryNames(t, aop.ArchivePath()))
	assertEmptyDir(t, env.workDir)

	dest := filepath.Join(t.TempDir(), "restored")
	eop, err := operation.NewExtractOperation(operation.Options{Config: env.cfg}, aop.ArchivePath(), dest)
	require.NoError(t, err)
	require.NoError(t, eop.Execute(env.ctx))

	for name, content := range files {
		b, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(b), name)
	}
}

func TestArchiveCompressorFailure(t *testing.T) {
	env := createTestEnv(t, map[string]string{"a.txt": "hello"})
	rep := &recorder{}

	mc := &mockCompressor{}
	mc.On("Suffix").Return(compress.SuffixHuff)
	mc.On("Compress", mock.Anything, filepath.Join(env.src, "a.txt"), mock.AnythingOfType("string")).
		Return(nil, errors.New("disk on fire"))

	op, err := operation.NewArchiveOperation(operation.Options{Config: env.cfg, Compressor: mc, Reporter: rep}, env.src, env.out)
	require.NoError(t, err)

	err = op.Execute(env.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(env.src, "a.txt"))
	assert.Contains(t, err.Error(), "disk on fire")

	assert.NoFileExists(t, op.ArchivePath())
	assertEmptyDir(t, env.workDir)
	assert.Equal(t, []status.State{status.StateFailed}, rep.states)
	assert.False(t, rep.finished)
	mc.AssertExpectations(t)
}

func TestArchiveWorkersKeepWalkOrder(t *testing.T) {
	files := map[string]string{}
	var want []string
	for i := range 20 {
		name := fmt.Sprintf("f%02d.txt", i)
		files[name] = strings.Repeat(name, i+1)
		want = append(want, name+compress.SuffixHuff)
	}
	env := createTestEnv(t, files)
	env.cfg.Workers = 4

	op, err := env.archive(t, nil)
	require.NoError(t, err)

	assert.Equal(t, want, entryNames(t, op.ArchivePath()))
	assertEmptyDir(t, env.workDir)
}

func TestArchiveFilters(t *testing.T) {
	env := createTestEnv(t, map[string]string{
		"keep.txt":       "k",
		"skip.log":       "s",
		"vendor/dep.txt": "v",
	})
	env.cfg.Include = []string{"**/*.txt"}
	env.cfg.Exclude = []string{"vendor"}

	op, err := env.archive(t, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.txt.huff"}, entryNames(t, op.ArchivePath()))
}

func TestArchiveMissingSource(t *testing.T) {
	env := createTestEnv(t, nil)
	env.src = filepath.Join(env.src, "nope")

	op, err := env.archive(t, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.NoFileExists(t, op.ArchivePath())
	assertEmptyDir(t, env.workDir)
}

func TestArchiveCancelled(t *testing.T) {
	env := createTestEnv(t, map[string]string{"a.txt": "hello"})
	ctx, cancel := context.WithCancel(env.ctx)
	cancel()
	env.ctx = ctx

	op, err := env.archive(t, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, op.ArchivePath())
}

func TestArchiveExecCompressor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	env := createTestEnv(t, map[string]string{
		"a.txt":     "hello",
		"sub/b.txt": "world",
	})

	script := filepath.Join(t.TempDir(), "fakehuf")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncp \"$1\" \"$2\"\n"), 0755))
	env.cfg.Compressor = &config.CompressorConfig{Kind: compress.KindExec, Command: script}
	require.NoError(t, config.Validate(env.ctx, env.cfg))

	op, err := env.archive(t, nil)
	require.NoError(t, err)

	got := map[string]string{}
	err = archive.Walk(op.ArchivePath(), func(e archive.Entry, r io.Reader) error {
		b, err := io.ReadAll(r)
		got[e.Name] = string(b)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt.huff": "hello", "b.txt.huff": "world"}, got)
	assertEmptyDir(t, env.workDir)
}

func TestArchiveExecFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	env := createTestEnv(t, map[string]string{"a.txt": "hello"})

	script := filepath.Join(t.TempDir(), "badhuf")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 2\n"), 0755))
	env.cfg.Compressor = &config.CompressorConfig{Kind: compress.KindExec, Command: script}
	require.NoError(t, config.Validate(env.ctx, env.cfg))

	op, err := env.archive(t, nil)
	require.Error(t, err)

	var execErr *compress.ExecError
	require.True(t, errors.As(err, &execErr), "want ExecError, got %v", err)
	assert.Equal(t, 2, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "boom")
	assert.NoFileExists(t, op.ArchivePath())
	assertEmptyDir(t, env.workDir)
}

func TestExtractRoundTrip(t *testing.T) {
	for _, kind := range []string{compress.KindHuff, compress.KindBzip2} {
		t.Run(kind, func(t *testing.T) {
			files := map[string]string{
				"a.txt":          "hello hello hello",
				"sub/b.txt":      "world",
				"sub/deep/c.bin": string([]byte{0, 1, 2, 255, 254, 0, 0}),
				"empty":          "",
			}
			env := createTestEnv(t, files)
			env.cfg.Naming = string(naming.Relative)
			env.cfg.Compressor = &config.CompressorConfig{Kind: kind}
			require.NoError(t, config.Validate(env.ctx, env.cfg))

			aop, err := env.archive(t, nil)
			require.NoError(t, err)

			dest := filepath.Join(t.TempDir(), "restored")
			rep := &recorder{}
			eop, err := operation.NewExtractOperation(operation.Options{Config: env.cfg, Reporter: rep}, aop.ArchivePath(), dest)
			require.NoError(t, err)
			require.NoError(t, eop.Execute(env.ctx))

			for name, content := range files {
				b, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
				require.NoError(t, err, name)
				assert.Equal(t, content, string(b), name)
			}
			assert.Equal(t, len(files), rep.summary.Files)
		})
	}
}

func TestExtractRejectsUnsafePaths(t *testing.T) {
	env := createTestEnv(t, nil)

	artifact := filepath.Join(t.TempDir(), "evil.huff")
	require.NoError(t, os.WriteFile(artifact, nil, 0644))

	archivePath := filepath.Join(t.TempDir(), "evil.tar.gz")
	w, err := archive.Create(archivePath, 0)
	require.NoError(t, err)
	require.NoError(t, w.AddFile(env.ctx, artifact, "../evil.txt.huff"))
	require.NoError(t, w.Close())

	dest := filepath.Join(t.TempDir(), "dest")
	op, err := operation.NewExtractOperation(operation.Options{Config: env.cfg}, archivePath, dest)
	require.NoError(t, err)

	err = op.Execute(env.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, operation.ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.txt"))
}

func TestExtractUnknownSuffix(t *testing.T) {
	env := createTestEnv(t, nil)

	artifact := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0644))

	archivePath := filepath.Join(t.TempDir(), "plain.tar.gz")
	w, err := archive.Create(archivePath, 0)
	require.NoError(t, err)
	require.NoError(t, w.AddFile(env.ctx, artifact, "plain.txt"))
	require.NoError(t, w.Close())

	op, err := operation.NewExtractOperation(operation.Options{Config: env.cfg}, archivePath, t.TempDir())
	require.NoError(t, err)

	err = op.Execute(env.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decompressor for plain.txt")
}

func TestList(t *testing.T) {
	env := createTestEnv(t, map[string]string{
		"a.txt":     "hello",
		"sub/b.txt": "world",
	})
	aop, err := env.archive(t, nil)
	require.NoError(t, err)

	rep := &recorder{}
	op, err := operation.NewListOperation(operation.Options{Config: env.cfg, Reporter: rep}, aop.ArchivePath())
	require.NoError(t, err)
	require.NoError(t, op.Execute(env.ctx))

	require.Len(t, op.Entries(), 2)
	assert.Equal(t, []string{"a.txt.huff", "b.txt.huff"}, rep.files)
	assert.Equal(t, []status.State{status.StateListed, status.StateListed}, rep.states)
	assert.Equal(t, 2, rep.summary.Files)
}

func TestNewOperationValidation(t *testing.T) {
	cfg := config.Default()
	c, err := compress.New(cfg.CompressorOptions())
	require.NoError(t, err)

	_, err = operation.NewArchiveOperation(operation.Options{Compressor: c}, "d", "out")
	assert.Error(t, err, "config is required")

	_, err = operation.NewArchiveOperation(operation.Options{Config: cfg}, "d", "out")
	assert.Error(t, err, "compressor is required")

	_, err = operation.NewArchiveOperation(operation.Options{Config: cfg, Compressor: c}, "", "out")
	assert.Error(t, err)

	_, err = operation.NewArchiveOperation(operation.Options{Config: cfg, Compressor: c}, "d", "")
	assert.Error(t, err)

	_, err = operation.NewListOperation(operation.Options{Config: cfg}, "")
	assert.Error(t, err)
}
