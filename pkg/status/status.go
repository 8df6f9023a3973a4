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

package status

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/classify"
)

// 📊 State is the outcome of publishing one key
type State int

const (
	StateUnknown   State = iota
	StateCreated         // key did not exist remotely
	StateUpdated         // key existed with other content
	StateCached          // content already stored, nothing sent
	StateDeleted         // key removed because the run did not produce it
	StateSimulated       // nothing sent, see Result.Planned
	StateError           // upload failed
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateUpdated:
		return "updated"
	case StateCached:
		return "cached"
	case StateDeleted:
		return "deleted"
	case StateSimulated:
		return "simulated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// States lists every reportable state in display order.
var States = []State{StateCreated, StateUpdated, StateCached, StateDeleted, StateSimulated, StateError}

// 📄 Result is what happened to a single key
type Result struct {
	Key     string
	Kind    classify.Kind
	State   State
	Planned State // the state a real run would have reached, set for simulated results
	Headers map[string]string
	Size    int64 // bytes sent or that would be sent
	Err     error
}

// 📈 Summary counts results per state.
type Summary struct {
	Counts map[State]int
	Bytes  int64 // bytes actually uploaded
}

func newSummary() Summary {
	return Summary{Counts: make(map[State]int)}
}

// Count returns how many results reached st.
func (s Summary) Count(st State) int {
	return s.Counts[st]
}

// Total is the number of results seen.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Failed reports whether any result was an error.
func (s Summary) Failed() bool {
	return s.Counts[StateError] > 0
}

func (s Summary) String() string {
	parts := make([]string, 0, len(States))
	for _, st := range States {
		if c := s.Counts[st]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, st))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to publish")
	}
	return fmt.Sprintf("%s (%s uploaded)", strings.Join(parts, ", "), humanize.Bytes(uint64(s.Bytes)))
}

func (s *Summary) add(res Result) {
	s.Counts[res.State]++
	if res.State == StateCreated || res.State == StateUpdated {
		s.Bytes += res.Size
	}
}

// 📣 Reporter turns results into console lines and structured log events.
// It only observes; it never changes what gets published.
type Reporter struct {
	console   io.Writer
	bucket    string
	simulate  bool
	formatter Formatter
	observe   func(Result)

	mu      sync.Mutex
	summary Summary
}

// 🏭 NewReporter creates a reporter writing to console. A nil console only logs.
func NewReporter(console io.Writer, bucket string, simulate bool) *Reporter {
	return &Reporter{
		console:   console,
		bucket:    bucket,
		simulate:  simulate,
		formatter: NewDefaultFormatter(),
		summary:   newSummary(),
	}
}

// WithFormatter swaps the console formatter.
func (r *Reporter) WithFormatter(f Formatter) *Reporter {
	r.formatter = f
	return r
}

// WithObserver registers fn to see every result Run reports, after it was
// displayed. fn runs on the goroutine calling Run.
func (r *Reporter) WithObserver(fn func(Result)) *Reporter {
	r.observe = fn
	return r
}

// Report records and displays one result.
func (r *Reporter) Report(ctx context.Context, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.add(res)

	event := zerolog.Ctx(ctx).Info()
	if res.State == StateError {
		event = zerolog.Ctx(ctx).Error().Err(res.Err)
	}
	event = event.
		Str("key", res.Key).
		Str("state", res.State.String()).
		Str("kind", res.Kind.String()).
		Int64("size", res.Size)
	if res.State == StateSimulated {
		event = event.Str("planned", res.Planned.String())
	}
	event.Msg("publish result")

	if r.console == nil {
		return
	}
	if r.simulate {
		fmt.Fprint(r.console, r.formatter.FormatSimulated(r.bucket, res))
		return
	}
	fmt.Fprintln(r.console, r.formatter.FormatResult(res))
}

// 🔄 Run reports every result from in until it is closed and returns the
// totals. It keeps draining after ctx is done so producers never block on it.
func (r *Reporter) Run(ctx context.Context, in <-chan Result) Summary {
	for res := range in {
		r.Report(ctx, res)
		if r.observe != nil {
			r.observe(res)
		}
	}
	return r.Summary()
}

// Summary returns a copy of the totals so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := newSummary()
	for k, v := range r.summary.Counts {
		out.Counts[k] = v
	}
	out.Bytes = r.summary.Bytes
	return out
}

// Finish prints the summary line.
func (r *Reporter) Finish(ctx context.Context) Summary {
	s := r.Summary()
	zerolog.Ctx(ctx).Info().
		Int("total", s.Total()).
		Int("created", s.Count(StateCreated)).
		Int("updated", s.Count(StateUpdated)).
		Int("cached", s.Count(StateCached)).
		Int("deleted", s.Count(StateDeleted)).
		Int("simulated", s.Count(StateSimulated)).
		Int("errors", s.Count(StateError)).
		Int64("bytes", s.Bytes).
		Msg("publish finished")

	if r.console != nil {
		fmt.Fprintln(r.console, r.formatter.FormatSummary(s))
	}
	return s
}
