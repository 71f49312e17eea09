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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/huftar/cmd/huftar/opts"
	"github.com/walteh/huftar/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

func NewExtractCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract ARCHIVE [DEST]",
		Short: "Restore the original files from a huftar archive",
		Long: `Extract decompresses every artifact of ARCHIVE into DEST (default: the
current directory). Each artifact is decoded by the compressor matching its
suffix and written without it. Entries that would land outside DEST are rejected.`,
		Args: opts.WithUsage(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}

			op, err := operation.NewExtractOperation(operation.Options{
				Config:   o.Config,
				Reporter: o.Reporter,
			}, args[0], dest)
			if err != nil {
				return errors.Errorf("creating extract operation: %w", err)
			}

			return operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op)
		},
	}

	return cmd
}
