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
	"sort"

	"github.com/spf13/cobra"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/log"
	"github.com/walteh/atomic-s3/pkg/operation"
	"github.com/walteh/atomic-s3/pkg/status"
	"gitlab.com/tozd/go/errors"
)

var errChangesPending = errors.New("changes pending")

// newStatusCmd creates the status command
func newStatusCmd(opts *rootOpts) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a publish would change",
		Long: `Status runs a simulated publish and lists the keys that would be
created, updated or deleted. Nothing is uploaded and the manifest is not
written. With --check the command fails when anything would change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config) error {
				ulog := log.FromContext(ctx)
				changed, pending, err := operation.Status(ctx, cfg, operation.Options{NewBucket: opts.newBucket})
				if err != nil {
					return err
				}

				if !changed {
					ulog.Success("bucket is up to date")
					return nil
				}

				for _, st := range status.States {
					keys := pending[st]
					if len(keys) == 0 {
						continue
					}
					sort.Strings(keys)
					ulog.Infof("%d to be %s", len(keys), st)
					ulog.Details(keys)
				}

				if check {
					return errChangesPending
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "exit with an error when changes are pending")

	return cmd
}
