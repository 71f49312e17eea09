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
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 35 // Base width for filename
	sizeWidth  = 10 // Width for size columns
)

// 🚦 State is the outcome shown next to a file
type State int

const (
	StateCompressed State = iota
	StateExtracted
	StateListed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCompressed:
		return "compressed"
	case StateExtracted:
		return "extracted"
	case StateListed:
		return "listed"
	default:
		return "failed"
	}
}

// 🎯 FormatRow formats one file line with a colored state marker
func FormatRow(name string, in, out int64, state State) string {
	var prefix string
	switch state {
	case StateCompressed:
		prefix = color.GreenString("✓")
	case StateExtracted:
		prefix = color.BlueString("⟳")
	case StateFailed:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	sizes := fmt.Sprintf("%*s", sizeWidth, FormatSize(out))
	if in >= 0 {
		sizes = fmt.Sprintf("%*s → %*s %s", sizeWidth, FormatSize(in), sizeWidth, FormatSize(out), FormatGain(in, out))
	}

	return fmt.Sprintf("%s%s %-*s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		nameWidth, name,
		sizes,
	)
}

// FormatSize renders a byte count with a binary unit
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatGain renders the size change as a signed percentage of the input
func FormatGain(in, out int64) string {
	if in == 0 {
		return color.HiBlackString("n/a")
	}
	gain := 100 - float64(out)/float64(in)*100
	if gain >= 0 {
		return color.GreenString("-%.1f%%", gain)
	}
	return color.YellowString("+%.1f%%", -gain)
}

// FormatProgress formats a progress message with percentage
func FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}
