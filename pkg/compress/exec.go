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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	KindExec = "exec"

	// PlaceholderSource and PlaceholderDest are replaced in exec arguments
	PlaceholderSource = "{src}"
	PlaceholderDest   = "{dst}"

	maxStderr = 64 * 1024
	waitDelay = 2 * time.Second
)

// DefaultExecArgs mirrors the `huf <input> <output>` calling convention
var DefaultExecArgs = []string{PlaceholderSource, PlaceholderDest}

func init() {
	Register(KindExec, func(opts Options) (Compressor, error) {
		if opts.Command == "" {
			return nil, errors.Errorf("command is required")
		}
		args := opts.Args
		if len(args) == 0 {
			args = DefaultExecArgs
		}
		return &execCompressor{
			command: opts.Command,
			args:    args,
			suffix:  suffixOr(opts.Suffix, SuffixHuff),
			timeout: opts.Timeout,
		}, nil
	})
}

// ❌ ExecError reports an external compressor that exited unsuccessfully
type ExecError struct {
	Source   string // File being compressed
	Command  string // Executable that was run
	ExitCode int    // Exit status, -1 if killed by a signal
	Stderr   string // Captured standard error, possibly truncated
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// 🔨 execCompressor shells out to an external program once per file
type execCompressor struct {
	command string
	args    []string
	suffix  string
	timeout time.Duration
}

func (c *execCompressor) Kind() string   { return KindExec }
func (c *execCompressor) Suffix() string { return c.suffix }

func (c *execCompressor) expandArgs(src, dst string) []string {
	out := make([]string, len(c.args))
	for i, a := range c.args {
		a = strings.ReplaceAll(a, PlaceholderSource, src)
		out[i] = strings.ReplaceAll(a, PlaceholderDest, dst)
	}
	return out
}

func (c *execCompressor) Compress(ctx context.Context, src, dst string) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	path, err := exec.LookPath(c.command)
	if err != nil {
		return nil, errors.Errorf("finding compressor %q: %w", c.command, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, errors.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, errors.Errorf("creating artifact directory: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.expandArgs(src, dst)
	stderr := &limitedBuffer{max: maxStderr}
	// stdout is left nil so it goes to the null device
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	logger.Debug().Str("command", path).Strs("args", args).Msg("running external compressor")

	start := time.Now()
	result := &Result{Source: src, Artifact: dst, InputSize: info.Size()}
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stderr = stderr.String()

	if runErr != nil {
		os.Remove(dst)
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.ExitCode = -1
			return result, errors.Errorf("running %s: %w", c.command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &ExecError{
				Source:   src,
				Command:  c.command,
				ExitCode: result.ExitCode,
				Stderr:   result.Stderr,
			}
		}
		return result, errors.Errorf("running %s: %w", c.command, runErr)
	}

	outInfo, err := os.Stat(dst)
	if err != nil {
		return result, errors.Errorf("%s exited 0 but produced no artifact at %s: %w", c.command, dst, err)
	}
	result.OutputSize = outInfo.Size()

	logger.Debug().
		Str("source", src).
		Str("artifact", dst).
		Dur("duration", result.Duration).
		Msg("external compressor finished")

	return result, nil
}

// limitedBuffer keeps the first max bytes written to it and drops the rest
type limitedBuffer struct {
	buf       strings.Builder
	max       int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[truncated]"
	}
	return b.buf.String()
}
