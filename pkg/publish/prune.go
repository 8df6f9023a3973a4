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
	"github.com/walteh/atomic-s3/pkg/status"
	"github.com/walteh/atomic-s3/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🧹 prune deletes keys under the prefix that this run did not produce. It
// runs after the entry point phase so nothing still referenced disappears
// before its replacement is live.
func (p *Publisher) prune(ctx context.Context, out chan<- status.Result) error {
	logger := zerolog.Ctx(ctx)

	prefix := p.opts.Prefix
	if prefix != "" {
		prefix += "/"
	}

	var stale []string
	err := p.bucket.List(ctx, prefix, func(obj storage.Object) error {
		if !p.wasSeen(obj.Key) {
			stale = append(stale, obj.Key)
		}
		return nil
	})
	if err != nil {
		return errors.Errorf("listing stale keys: %w", err)
	}

	logger.Debug().Int("stale", len(stale)).Str("prefix", prefix).Msg("pruning")

	for _, key := range stale {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("prune cancelled: %w", err)
		}

		res := status.Result{Key: key, State: status.StateDeleted}

		if p.opts.Simulate {
			res.State = status.StateSimulated
			res.Planned = status.StateDeleted
			out <- res
			continue
		}

		if err := p.bucket.Delete(ctx, key); err != nil {
			res, uerr := failed(res, err)
			out <- res
			return uerr
		}
		p.manifest.Remove(key)
		out <- res
	}

	return nil
}
