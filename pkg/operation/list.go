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
	"time"

	"github.com/walteh/huftar/pkg/archive"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📋 ListOperation reports the artifacts stored in an archive
type ListOperation struct {
	BaseOperation
	archivePath string
	entries     []archive.Entry
}

func NewListOperation(opts Options, archivePath string) (*ListOperation, error) {
	base, err := NewBaseOperation(opts)
	if err != nil {
		return nil, err
	}
	if archivePath == "" {
		return nil, errors.Errorf("archive path is required")
	}
	return &ListOperation{BaseOperation: base, archivePath: archivePath}, nil
}

func (op *ListOperation) Name() string { return "list" }

// Entries returns what the last Execute found
func (op *ListOperation) Entries() []archive.Entry { return op.entries }

func (op *ListOperation) Execute(ctx context.Context) error {
	start := time.Now()
	op.Reporter.Start(op.Name(), op.archivePath)

	entries, err := archive.List(op.archivePath)
	if err != nil {
		return errors.Errorf("listing %s: %w", op.archivePath, err)
	}

	var total int64
	for _, e := range entries {
		op.Reporter.File(e.Name, -1, e.Size, status.StateListed)
		total += e.Size
	}
	op.entries = entries

	op.Reporter.Finish(status.Summary{
		Operation:   op.Name(),
		Target:      op.archivePath,
		Files:       len(entries),
		OutputBytes: total,
		Duration:    time.Since(start),
	})
	return nil
}
