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

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/huftar/cmd/huftar/commands"
	"github.com/walteh/huftar/cmd/huftar/opts"
	"github.com/walteh/huftar/pkg/compress"
	"github.com/walteh/huftar/pkg/config"
	"github.com/walteh/huftar/pkg/operation"
	"github.com/walteh/huftar/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// archiveFlags hold the command line overrides for the archive run
type archiveFlags struct {
	compressor string
	command    string
	args       []string
	naming     string
	workers    int
	include    []string
	exclude    []string
	level      int
	timeout    string
	workDir    string
	gzipLevel  int
}

// newRootCmd builds the huftar command tree
func newRootCmd() *cobra.Command {
	o := &opts.RootOpts{}
	af := &archiveFlags{}

	cmd := &cobra.Command{
		Use:   "huftar [flags] DIRECTORY OUTPUT",
		Short: "Compress every file of a directory and bundle them into OUTPUT.tar.gz",
		Long: `huftar walks DIRECTORY, compresses each regular file into a .huff artifact
and bundles the artifacts into OUTPUT.tar.gz. Artifacts are staged in a private
directory and removed once the archive is written.

Use "huftar extract" to restore the original files from an archive.`,
		Args:         opts.WithUsage(cobra.ExactArgs(2)),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), o.Debug, o.Quiet)
			return newRootOpts(cmd.Context(), o, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, o, af, args[0], args[1])
		},
	}

	addRootFlags(cmd, o)
	addArchiveFlags(cmd, af)

	cmd.AddCommand(
		commands.NewExtractCmd(o),
		commands.NewListCmd(o),
		newVersionCmd(),
	)

	return cmd
}

// newRootOpts loads the configuration and picks the reporter
func newRootOpts(ctx context.Context, o *opts.RootOpts, out io.Writer) error {
	cfg, err := config.Resolve(ctx, o.ConfigFile, ".")
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.Config = cfg

	if o.Quiet {
		o.Reporter = status.Nop{}
	} else {
		o.Reporter = status.NewConsole(out)
	}
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "config file path (default: .huftar.yaml, .yml, .hcl or .json if present)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&o.Quiet, "quiet", "q", false, "only print errors")
}

// addArchiveFlags adds the flags that override the config file for an archive run
func addArchiveFlags(cmd *cobra.Command, af *archiveFlags) {
	f := cmd.Flags()
	f.StringVar(&af.compressor, "compressor", "", "per-file compressor: huff, bzip2 or exec")
	f.StringVar(&af.command, "command", "", "external compressor for --compressor=exec")
	f.StringSliceVar(&af.args, "arg", nil, "external compressor arguments, {src} and {dst} are replaced")
	f.StringVar(&af.naming, "naming", "", "artifact naming: flat or relative")
	f.IntVar(&af.workers, "workers", 0, "number of files compressed concurrently")
	f.StringSliceVar(&af.include, "include", nil, "only archive files matching these patterns")
	f.StringSliceVar(&af.exclude, "exclude", nil, "skip files and directories matching these patterns")
	f.IntVar(&af.level, "level", 0, "compression level for compressors that support one (1-9)")
	f.StringVar(&af.timeout, "timeout", "", "per-file compressor time limit, e.g. 30s")
	f.StringVar(&af.workDir, "work-dir", "", "parent of the staging directory (default: system temp dir)")
	f.IntVar(&af.gzipLevel, "gzip-level", 0, "gzip level of the archive (1-9, -1 default, -2 huffman only)")
}

// apply copies the flags that were set onto cfg
func (af *archiveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if cfg.Compressor == nil {
		cfg.Compressor = &config.CompressorConfig{}
	}
	if f.Changed("compressor") {
		cfg.Compressor.Kind = af.compressor
	}
	if f.Changed("command") {
		cfg.Compressor.Command = af.command
		if !f.Changed("compressor") {
			cfg.Compressor.Kind = compress.KindExec
		}
	}
	if f.Changed("arg") {
		cfg.Compressor.Args = af.args
	}
	if f.Changed("level") {
		cfg.Compressor.Level = af.level
	}
	if f.Changed("timeout") {
		cfg.Compressor.Timeout = af.timeout
	}
	if f.Changed("naming") {
		cfg.Naming = af.naming
	}
	if f.Changed("workers") {
		cfg.Workers = af.workers
	}
	if f.Changed("include") {
		cfg.Include = af.include
	}
	if f.Changed("exclude") {
		cfg.Exclude = af.exclude
	}
	if f.Changed("work-dir") {
		cfg.WorkDir = af.workDir
	}
	if f.Changed("gzip-level") {
		cfg.GzipLevel = af.gzipLevel
	}
}

func runArchive(cmd *cobra.Command, o *opts.RootOpts, af *archiveFlags, dir, output string) error {
	ctx := cmd.Context()

	af.apply(cmd, o.Config)
	if err := config.Validate(ctx, o.Config); err != nil {
		return errors.Errorf("validating flags: %w", err)
	}

	c, err := compress.New(o.Config.CompressorOptions())
	if err != nil {
		return err
	}

	op, err := operation.NewArchiveOperation(operation.Options{
		Config:     o.Config,
		Compressor: c,
		Reporter:   o.Reporter,
	}, dir, output)
	if err != nil {
		return errors.Errorf("creating archive operation: %w", err)
	}

	return operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op)
}

// setupLogging configures zerolog based on flags
func setupLogging(out io.Writer, debug, quiet bool) {
	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log := zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: !status.IsTerminal(out)}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
