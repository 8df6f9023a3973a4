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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/log"
	"github.com/walteh/atomic-s3/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// rootOpts holds the flag values shared by every command
type rootOpts struct {
	configFile string
	bucket     string
	region     string
	path       string
	endpoint   string
	verbose    bool
	silent     bool
	debug      bool

	simulate    bool
	force       bool
	deleteStale bool
	concurrency int
	version     bool

	newBucket operation.BucketFactory
}

// newRootCmd builds the command tree. newBucket creates the storage target
// once the options are valid.
func newRootCmd(newBucket operation.BucketFactory) *cobra.Command {
	opts := &rootOpts{newBucket: newBucket}

	cmd := &cobra.Command{
		Use:   "atomic-s3",
		Short: "Publish a static build to S3, assets before entry points",
		Long: `atomic-s3 uploads a build directory to an S3 bucket in two phases.
Hashed assets are uploaded first; entry points (html by default) are only
uploaded once every asset is stored, so a visitor never gets a page that
references a file that is not there yet.

Unchanged files are skipped using a local manifest (.atomic-s3-<bucket>).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprint(cmd.OutOrStdout(), FormatVersion())
				return nil
			}
			return opts.run(cmd, opts.publish)
		},
	}

	addRootFlags(cmd, opts)

	cmd.AddCommand(
		newStatusCmd(opts),
		newCleanCmd(opts),
	)

	return cmd
}

// addRootFlags adds the flags to the root command
func addRootFlags(cmd *cobra.Command, opts *rootOpts) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", config.DefaultFile, "config file path (json, yaml or hcl)")
	pf.StringVarP(&opts.bucket, "bucket", "b", "", "target bucket")
	pf.StringVarP(&opts.region, "region", "r", "", "bucket region")
	pf.StringVarP(&opts.path, "path", "p", "", "directory to publish")
	pf.StringVar(&opts.endpoint, "endpoint", "", "S3-compatible endpoint url")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "print the resolved options")
	pf.BoolVarP(&opts.silent, "silent", "s", false, "only print errors")
	pf.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	f := cmd.Flags()
	f.BoolVar(&opts.simulate, "simulate", false, "print what would be uploaded, send nothing")
	f.BoolVar(&opts.force, "force", false, "ignore the manifest and upload everything")
	f.BoolVar(&opts.deleteStale, "delete", false, "delete keys under the prefix that are not part of the build")
	f.IntVar(&opts.concurrency, "concurrency", 0, "uploads in flight per phase (default 2x cpus)")
	f.BoolVar(&opts.version, "version", false, "print version information")
}

// run sets up logging, loads the configuration and calls fn with the logger
// in ctx. Errors are printed here so main only has to pick the exit code.
func (o *rootOpts) run(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config) error) error {
	ulog := o.logger(cmd)
	ctx := log.NewContext(ulog.Zerolog().WithContext(cmd.Context()), ulog)

	cfg, err := o.loadConfig(ctx, cmd)
	if err == nil {
		err = fn(ctx, cfg)
	}
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			ulog.Error("invalid options")
			ulog.Details(verr.Problems)
		} else {
			ulog.Error(err.Error())
		}
		return err
	}
	return nil
}

func (o *rootOpts) logger(cmd *cobra.Command) *log.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.InfoLevel
	}
	if o.debug {
		level = zerolog.DebugLevel
	}
	return log.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), level)
}

// loadConfig merges the config file with the command line. A missing default
// config file is fine, a missing explicit one is not.
func (o *rootOpts) loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	path, required := config.DefaultFile, false
	if cmd.Flags().Changed("config") {
		path, required = o.configFile, true
	}

	cfg, err := config.LoadOptional(ctx, path, required)
	if err != nil {
		return nil, err
	}

	if o.verbose {
		if _, err := os.Stat(path); err == nil {
			abs, _ := filepath.Abs(path)
			log.FromContext(ctx).Infof("using config from %s", abs)
		}
	}

	overrides := config.Overrides{
		Bucket:      o.bucket,
		Region:      o.region,
		Endpoint:    o.endpoint,
		Simulate:    o.simulate,
		Force:       o.force,
		DeleteStale: o.deleteStale,
		Concurrency: o.concurrency,
	}
	if cmd.Flags().Changed("path") {
		p := o.path
		overrides.Path = &p
	}
	cfg.Apply(overrides)

	return cfg, nil
}

func (o *rootOpts) operationOptions(ulog *log.Logger) operation.Options {
	opts := operation.Options{NewBucket: o.newBucket}
	if !o.silent {
		opts.Console = ulog.Console()
	}
	return opts
}

// publish is the root command
func (o *rootOpts) publish(ctx context.Context, cfg *config.Config) error {
	ulog := log.FromContext(ctx)
	start := time.Now()

	norm, err := config.Normalize(cfg)
	if err != nil {
		return err
	}

	if !o.silent {
		ulog.Header("uploading to s3")
		ulog.StartPublish(ctx, log.PublishOperation{
			Bucket:   norm.Bucket,
			Region:   norm.Region,
			Source:   norm.Path,
			Prefix:   norm.Prefix,
			Simulate: norm.Simulate,
		})
	}
	if o.verbose {
		if err := printOptions(ulog.Console(), norm); err != nil {
			return err
		}
	}

	summary, err := operation.Publish(ctx, cfg, o.operationOptions(ulog))
	ulog.EndPublish(ctx, summary.Total())
	if err != nil {
		return err
	}

	if !o.silent {
		ulog.Successf("finished s3 upload in %s", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// printOptions renders the resolved options as a table
func printOptions(w io.Writer, o *config.Options) error {
	data := pterm.TableData{
		{"option", "value"},
		{"path", o.Path},
		{"bucket", o.Bucket},
		{"region", o.Region},
		{"prefix", o.Prefix},
		{"entryPoints", strings.Join(o.EntryPoints, ",")},
		{"maxAge", strconv.FormatInt(o.MaxAge, 10)},
		{"gzip", strings.Join(o.GzipExtensions, ",")},
		{"concurrency", strconv.Itoa(o.Concurrency)},
		{"simulate", strconv.FormatBool(o.Simulate)},
		{"force", strconv.FormatBool(o.Force)},
	}
	if o.Endpoint != "" {
		data = append(data, []string{"endpoint", o.Endpoint})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering options: %w", err)
	}
	fmt.Fprintln(w, table)
	return nil
}
