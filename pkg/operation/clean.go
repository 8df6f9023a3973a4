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

	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/manifest"
	"gitlab.com/tozd/go/errors"
)

// 🧹 Clean removes the upload manifest of the configured bucket so the next
// publish checks every key against the bucket again. Only the bucket has to
// be configured. Returns the path that was cleared.
func Clean(ctx context.Context, cfg *config.Config) (string, error) {
	prepared := config.Prepare(cfg)
	if prepared.S3Options == nil || prepared.S3Options.Params == nil || prepared.S3Options.Params.Bucket == "" {
		return "", &config.ValidationError{Problems: []string{
			"bucket is not defined (should be defined via command line option --bucket or s3options.params.Bucket)",
		}}
	}

	dir := prepared.CacheDir
	if dir == "" {
		dir = config.DefaultCacheDir
	}

	m, err := manifest.Open(ctx, dir, prepared.S3Options.Params.Bucket, true)
	if err != nil {
		return "", errors.Errorf("clearing manifest: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", m.Path()).Msg("manifest cleared")
	return m.Path(), nil
}
