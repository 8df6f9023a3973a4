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

package publish

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/manifest"
	"github.com/walteh/atomic-s3/pkg/status"
	"github.com/walteh/atomic-s3/pkg/storage"
	"github.com/walteh/atomic-s3/pkg/upload"
	"gitlab.com/tozd/go/errors"
)

// 🔍 Differ decides whether a file has to be sent.
type Differ struct {
	bucket   storage.Bucket
	manifest *manifest.Manifest
	force    bool
	simulate bool
}

// NewDiffer creates a differ. With force the manifest is never trusted; with
// simulate the bucket is never contacted.
func NewDiffer(bucket storage.Bucket, m *manifest.Manifest, force, simulate bool) *Differ {
	return &Differ{bucket: bucket, manifest: m, force: force, simulate: simulate}
}

// Decide returns StateCreated, StateUpdated or StateCached for f.
func (d *Differ) Decide(ctx context.Context, f *upload.File) (status.State, error) {
	logger := zerolog.Ctx(ctx)

	known, inManifest := d.manifest.Get(f.Key)

	if d.simulate {
		switch {
		case inManifest && known == f.Fingerprint && !d.force:
			return status.StateCached, nil
		case inManifest:
			return status.StateUpdated, nil
		default:
			return status.StateCreated, nil
		}
	}

	if !d.force && inManifest {
		if known == f.Fingerprint {
			return status.StateCached, nil
		}
		return status.StateUpdated, nil
	}

	remote, err := d.bucket.Head(ctx, f.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return status.StateCreated, nil
		}
		// a put-only role sees 403 for keys that do not exist
		if errors.Is(err, storage.ErrForbidden) {
			logger.Debug().Str("key", f.Key).Msg("head forbidden, treating as absent")
			return status.StateCreated, nil
		}
		return status.StateUnknown, err
	}

	if d.force {
		return status.StateUpdated, nil
	}

	if remote.ETag == f.Fingerprint {
		logger.Debug().Str("key", f.Key).Msg("remote object already current")
		d.manifest.Set(f.Key, f.Fingerprint)
		return status.StateCached, nil
	}
	return status.StateUpdated, nil
}
