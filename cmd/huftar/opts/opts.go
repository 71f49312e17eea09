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

package opts

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/huftar/pkg/config"
	"github.com/walteh/huftar/pkg/status"
)

// RootOpts is filled in by the root command before any subcommand runs
type RootOpts struct {
	ConfigFile string
	Debug      bool
	Quiet      bool

	Config   *config.Config
	Reporter status.Reporter
}

// WithUsage wraps an argument validator so a wrong argument count prints the
// command's usage to stderr. The root command silences usage for every other
// error.
func WithUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return err
		}
		return nil
	}
}
