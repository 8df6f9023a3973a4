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
	"github.com/walteh/atomic-s3/pkg/upload"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ⏳ future holds the result of one dispatched file.
type future struct {
	done    chan struct{}
	res     status.Result
	skipped bool
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) resolve(res status.Result) {
	f.res = res
	close(f.done)
}

func (f *future) skip() {
	f.skipped = true
	close(f.done)
}

// 🔄 runPhase publishes everything the sources produce and returns once every
// dispatched upload has resolved. Results leave in dispatch order: each file
// gets a future in a FIFO queue and the queue is drained head first.
func (p *Publisher) runPhase(ctx context.Context, out chan<- status.Result, sources ...upload.Source) error {
	logger := zerolog.Ctx(ctx)

	// dispatchCtx stops sources and new uploads; uploads already started keep ctx
	dispatchCtx, halt := context.WithCancel(ctx)
	defer halt()

	files := make(chan *upload.File, p.opts.Concurrency)
	sourceErr := make(chan error, 1)
	go func() {
		defer close(files)
		for _, src := range sources {
			if err := src(dispatchCtx, files); err != nil {
				sourceErr <- err
				return
			}
		}
		sourceErr <- nil
	}()

	queue := make(chan *future, p.opts.Concurrency)
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	go func() {
		defer close(queue)
		for f := range files {
			if dispatchCtx.Err() != nil {
				continue
			}
			fut := newFuture()
			queue <- fut
			g.Go(func() error {
				if dispatchCtx.Err() != nil {
					fut.skip()
					return nil
				}
				res, err := p.publishFile(ctx, f)
				fut.resolve(res)
				if err != nil {
					halt()
					return err
				}
				return nil
			})
		}
	}()

	dispatched := 0
	for fut := range queue {
		<-fut.done
		if fut.skipped {
			continue
		}
		dispatched++
		out <- fut.res
	}

	uploadErr := g.Wait()
	srcErr := <-sourceErr

	logger.Debug().Int("results", dispatched).Msg("phase resolved")

	if uploadErr != nil {
		return uploadErr
	}
	if err := ctx.Err(); err != nil {
		return errors.Errorf("publish cancelled: %w", err)
	}
	if srcErr != nil {
		return errors.Errorf("reading files: %w", srcErr)
	}
	return nil
}
