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

// Package publish uploads assets and entry points in two ordered phases so an
// entry point never references an asset that is not stored yet.
package publish

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/manifest"
	"github.com/walteh/atomic-s3/pkg/status"
	"github.com/walteh/atomic-s3/pkg/storage"
	"github.com/walteh/atomic-s3/pkg/upload"
)

// ⚙️ Options tunes a Publisher.
type Options struct {
	Concurrency int    // uploads in flight per phase, 2×NumCPU when zero
	Simulate    bool   // report what would happen, send nothing
	Force       bool   // upload even when the manifest says the key is current
	DeleteStale bool   // remove keys under Prefix the run did not produce
	Prefix      string // key prefix the run owns, used by DeleteStale
}

// 🚀 Publisher runs the asset phase, then the entry point phase, then the
// optional prune.
type Publisher struct {
	bucket   storage.Bucket
	manifest *manifest.Manifest
	differ   *Differ
	opts     Options

	mu   sync.Mutex
	seen map[string]struct{}
}

// 🏭 New creates a publisher for bucket.
func New(bucket storage.Bucket, m *manifest.Manifest, opts Options) *Publisher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU() * 2
	}
	return &Publisher{
		bucket:   bucket,
		manifest: m,
		differ:   NewDiffer(bucket, m, opts.Force, opts.Simulate),
		opts:     opts,
		seen:     make(map[string]struct{}),
	}
}

// Run publishes every file from assets (in argument order), waits for all of
// them to resolve, then publishes entry. Results are sent to out in dispatch
// order; out is not closed. The first failure stops dispatching, lets
// in-flight uploads finish and skips every later phase.
func (p *Publisher) Run(ctx context.Context, out chan<- status.Result, entry upload.Source, assets ...upload.Source) error {
	logger := zerolog.Ctx(ctx)

	logger.Debug().Int("sources", len(assets)).Int("concurrency", p.opts.Concurrency).Msg("starting asset phase")
	if err := p.runPhase(ctx, out, assets...); err != nil {
		logger.Debug().Err(err).Msg("asset phase failed, entry points not published")
		return err
	}

	if entry != nil {
		logger.Debug().Msg("starting entry point phase")
		if err := p.runPhase(ctx, out, entry); err != nil {
			return err
		}
	}

	if p.opts.DeleteStale {
		if err := p.prune(ctx, out); err != nil {
			return err
		}
	}

	return nil
}

// Seen returns how many keys the run has processed so far.
func (p *Publisher) Seen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

// publishFile decides and, when needed, uploads f. The returned error is
// already wrapped in an UploadError.
func (p *Publisher) publishFile(ctx context.Context, f *upload.File) (status.Result, error) {
	p.markSeen(f.Key)

	res := status.Result{
		Key:     f.Key,
		Kind:    f.Kind,
		Headers: f.Headers,
		Size:    f.Size(),
	}

	decision, err := p.differ.Decide(ctx, f)
	if err != nil {
		return failed(res, err)
	}

	if p.opts.Simulate {
		res.State = status.StateSimulated
		res.Planned = decision
		return res, nil
	}

	if decision == status.StateCached {
		res.State = status.StateCached
		return res, nil
	}

	if _, err := p.bucket.Put(ctx, putInput(f)); err != nil {
		return failed(res, err)
	}
	p.manifest.Set(f.Key, f.Fingerprint)

	res.State = decision
	return res, nil
}

func (p *Publisher) markSeen(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[key] = struct{}{}
}

func (p *Publisher) wasSeen(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[key]
	return ok
}

func failed(res status.Result, err error) (status.Result, error) {
	uerr := &UploadError{Key: res.Key, Err: err}
	res.State = status.StateError
	res.Err = err
	return res, uerr
}

func putInput(f *upload.File) *storage.PutInput {
	return &storage.PutInput{
		Key:             f.Key,
		Body:            f.Content,
		ContentType:     f.Header(upload.HeaderContentType),
		ContentEncoding: f.Header(upload.HeaderContentEncoding),
		CacheControl:    f.Header(upload.HeaderCacheControl),
		ACL:             f.Header(upload.HeaderACL),
	}
}
