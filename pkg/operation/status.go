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
	"github.com/walteh/atomic-s3/pkg/status"
)

// 📋 Pending lists the keys a publish would change, grouped by planned state.
type Pending map[status.State][]string

// Len is the number of keys that would change.
func (p Pending) Len() int {
	n := 0
	for _, keys := range p {
		n += len(keys)
	}
	return n
}

// 🔍 Status simulates a publish of cfg and reports what would change. It never
// uploads and never writes the manifest. Returns true when anything would be
// created, updated or deleted.
func Status(ctx context.Context, cfg *config.Config, opts Options) (bool, Pending, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("checking status")

	o, err := config.Normalize(cfg)
	if err != nil {
		return false, nil, err
	}
	o.Simulate = true

	pending := Pending{}
	_, err = run(ctx, o, opts, func(res status.Result) {
		if res.State != status.StateSimulated || res.Planned == status.StateCached {
			return
		}
		pending[res.Planned] = append(pending[res.Planned], res.Key)
	})
	if err != nil {
		return false, nil, err
	}

	if pending.Len() == 0 {
		logger.Debug().Msg("bucket is up to date")
		return false, pending, nil
	}

	logger.Debug().Int("pending", pending.Len()).Msg("changes pending")
	return true, pending, nil
}
