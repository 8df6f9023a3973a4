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

	"github.com/spf13/cobra"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/log"
	"github.com/walteh/atomic-s3/pkg/operation"
)

// newCleanCmd creates the clean command
func newCleanCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Forget the upload manifest of the bucket",
		Long: `Clean removes the local manifest (.atomic-s3-<bucket>) so the next
publish compares every file with the bucket again. Nothing in the bucket is
touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config) error {
				path, err := operation.Clean(ctx, cfg)
				if err != nil {
					return err
				}
				if !opts.silent {
					log.FromContext(ctx).Successf("removed %s", path)
				}
				return nil
			})
		},
	}

	return cmd
}
