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
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/huftar/cmd/huftar/opts"
	"github.com/walteh/huftar/pkg/operation"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func NewListCmd(o *opts.RootOpts) *cobra.Command {
	var namesOnly bool

	cmd := &cobra.Command{
		Use:   "list ARCHIVE",
		Short: "Show the artifacts stored in a huftar archive",
		Args:  opts.WithUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reporter := o.Reporter
			if namesOnly {
				reporter = status.Nop{}
			}

			op, err := operation.NewListOperation(operation.Options{
				Config:   o.Config,
				Reporter: reporter,
			}, args[0])
			if err != nil {
				return errors.Errorf("creating list operation: %w", err)
			}

			if err := operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op); err != nil {
				return err
			}

			if namesOnly {
				for _, e := range op.Entries() {
					fmt.Fprintln(cmd.OutOrStdout(), e.Name)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&namesOnly, "names", false, "print one entry name per line")

	return cmd
}
