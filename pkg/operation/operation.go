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
	"io"

	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/classify"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/log"
	"github.com/walteh/atomic-s3/pkg/manifest"
	"github.com/walteh/atomic-s3/pkg/publish"
	"github.com/walteh/atomic-s3/pkg/status"
	"github.com/walteh/atomic-s3/pkg/storage"
	"github.com/walteh/atomic-s3/pkg/upload"
	"gitlab.com/tozd/go/errors"
)

// 🪣 BucketFactory builds the storage target once the options are known.
type BucketFactory func(ctx context.Context, opts *config.Options) (storage.Bucket, error)

// 🔧 Options contains the collaborators of a run
type Options struct {
	// Bucket is used as is when set
	Bucket storage.Bucket
	// NewBucket builds the bucket when Bucket is nil, defaults to S3
	NewBucket BucketFactory
	// Console receives one line per file, nil only logs
	Console io.Writer
	// Formatter overrides the console formatter
	Formatter status.Formatter
}

// 🏭 NewS3Bucket is the default BucketFactory. Credentials come from the AWS
// default chain.
func NewS3Bucket(ctx context.Context, opts *config.Options) (storage.Bucket, error) {
	client, err := storage.NewClient(ctx, storage.ClientOptions{
		Region:   opts.Region,
		Endpoint: opts.Endpoint,
	})
	if err != nil {
		return nil, errors.Errorf("creating s3 client: %w", err)
	}
	return storage.NewS3Bucket(client, opts.Bucket), nil
}

// 🚀 Publish validates cfg and publishes the configured directory: assets
// first, entry points once every asset has resolved. The manifest is saved
// unless the run is simulated, also after a failed run so acknowledged uploads
// are not repeated.
func Publish(ctx context.Context, cfg *config.Config, opts Options) (status.Summary, error) {
	o, err := config.Normalize(cfg)
	if err != nil {
		return status.Summary{}, err
	}
	return run(ctx, o, opts, nil)
}

// run publishes with already normalized options. observe, when set, sees
// every result after the reporter.
func run(ctx context.Context, o *config.Options, opts Options, observe func(status.Result)) (status.Summary, error) {
	logger := zerolog.Ctx(ctx)

	bucket, err := opts.bucket(ctx, o)
	if err != nil {
		return status.Summary{}, err
	}

	// a simulated forced run must leave the cache file alone
	m, err := manifest.Open(ctx, o.CacheDir, o.Bucket, o.Force && !o.Simulate)
	if err != nil {
		return status.Summary{}, errors.Errorf("opening manifest: %w", err)
	}

	t := upload.NewTransformer(o)
	entry := t.Source(classify.EntryPoints(o.Path, o.EntryPoints))
	assets := t.Source(classify.Assets(o.Path, o.EntryPoints, o.Include, o.Exclude))

	pub := publish.New(bucket, m, publish.Options{
		Concurrency: o.Concurrency,
		Simulate:    o.Simulate,
		Force:       o.Force,
		DeleteStale: o.DeleteStale,
		Prefix:      o.Prefix,
	})

	reporter := status.NewReporter(opts.Console, o.Bucket, o.Simulate).WithObserver(observe)
	if opts.Formatter != nil {
		reporter = reporter.WithFormatter(opts.Formatter)
	}

	logger.Debug().
		Str("path", o.Path).
		Str("bucket", o.Bucket).
		Str("prefix", o.Prefix).
		Bool("simulate", o.Simulate).
		Bool("force", o.Force).
		Msg("publishing")

	results := make(chan status.Result, o.Concurrency)
	done := make(chan struct{})
	go func() {
		defer close(done)
		reporter.Run(ctx, results)
	}()

	runErr := pub.Run(ctx, results, entry, assets)
	close(results)
	<-done

	summary := reporter.Finish(ctx)

	if o.Simulate {
		return summary, runErr
	}

	if err := m.Save(ctx); err != nil {
		if runErr != nil {
			log.FromContext(ctx).Warningf("manifest not saved after failed publish: %v", err)
			return summary, runErr
		}
		return summary, errors.Errorf("saving manifest: %w", err)
	}

	return summary, runErr
}

func (opts Options) bucket(ctx context.Context, o *config.Options) (storage.Bucket, error) {
	if opts.Bucket != nil {
		return opts.Bucket, nil
	}
	factory := opts.NewBucket
	if factory == nil {
		factory = NewS3Bucket
	}
	b, err := factory(ctx, o)
	if err != nil {
		return nil, errors.Errorf("creating bucket %s: %w", o.Bucket, err)
	}
	return b, nil
}
