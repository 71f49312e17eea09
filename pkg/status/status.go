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

package status

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// 📊 Summary describes a finished run
type Summary struct {
	Operation   string        // archive, extract or list
	Target      string        // Archive or destination path
	Files       int           // Number of files handled
	InputBytes  int64         // Bytes read
	OutputBytes int64         // Bytes written
	Duration    time.Duration // Wall time of the run
}

// 📈 Reporter receives progress events from operations
type Reporter interface {
	// Start announces an operation on source
	Start(op, source string)
	// File reports one file; in is -1 when the input size is unknown
	File(name string, in, out int64, state State)
	// Finish reports the outcome of the run
	Finish(s Summary)
}

// 🔇 Nop discards all events
type Nop struct{}

func (Nop) Start(string, string)             {}
func (Nop) File(string, int64, int64, State) {}
func (Nop) Finish(Summary)                   {}

// 🖥️ Console prints events for humans
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// 🏭 NewConsole creates a console reporter writing to out.
// When out is not a terminal it turns off color and pterm styling for the
// whole process, since both are package-level settings.
func NewConsole(out io.Writer) *Console {
	if !IsTerminal(out) {
		color.NoColor = true
		pterm.DisableStyling()
	}
	return &Console{out: out}
}

// IsTerminal reports whether w is a terminal or cygwin pty
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) Start(op, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pterm.Info.WithWriter(c.out).Println(fmt.Sprintf("%s %s", op, source))
}

func (c *Console) File(name string, in, out int64, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, FormatRow(name, in, out, state))
}

func (c *Console) Finish(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := fmt.Sprintf("%s %s: %d files, %s → %s in %s",
		s.Operation, s.Target, s.Files, FormatSize(s.InputBytes), FormatSize(s.OutputBytes), s.Duration.Round(time.Millisecond))
	pterm.Success.WithWriter(c.out).Println(msg)
}
