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
	"fmt"
	"sort"
	"strings"
)

// Formatter defines how results are rendered on the console
type Formatter interface {
	// FormatResult formats the line for a real upload
	FormatResult(res Result) string

	// FormatSimulated formats the target and headers of a simulated upload
	FormatSimulated(bucket string, res Result) string

	// FormatSummary formats the closing line
	FormatSummary(s Summary) string
}

// DefaultFormatter renders aligned colored columns
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

func (f *DefaultFormatter) FormatResult(res Result) string {
	detail := res.State.String()
	if res.Err != nil {
		detail = fmt.Sprintf("%s: %v", detail, res.Err)
	}
	return FormatFileOperation(res.Key, res.Kind.String(), detail, res.State)
}

// FormatSimulated prints s3://bucket/key followed by one indented line per header.
func (f *DefaultFormatter) FormatSimulated(bucket string, res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "s3://%s/%s", bucket, res.Key)
	if res.Planned != StateUnknown {
		fmt.Fprintf(&b, " (%s)", res.Planned)
	}
	b.WriteString("\n")

	names := make([]string, 0, len(res.Headers))
	for name := range res.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s%s: %s\n", strings.Repeat(" ", fileIndent), name, res.Headers[name])
	}
	return b.String()
}

// FormatSummary formats the totals with an emoji
func (f *DefaultFormatter) FormatSummary(s Summary) string {
	if s.Failed() {
		return fmt.Sprintf("❌ Failed: %s", s)
	}
	return fmt.Sprintf("✅ Published: %s", s)
}
