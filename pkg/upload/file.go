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

package upload

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/walteh/atomic-s3/pkg/classify"
	"gitlab.com/tozd/go/errors"
)

// Header names set by the transform stage.
const (
	HeaderCacheControl    = "Cache-Control"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentType     = "Content-Type"
	HeaderACL             = "X-Amz-Acl"
)

// 📄 File is one file travelling through the pipeline. A File is owned by
// exactly one stage at a time; it is handed to the next stage over a channel
// and never touched again by the sender.
type File struct {
	Path        string        // path on the local disk
	Rel         string        // path relative to the source root, slash separated
	Key         string        // destination key in the bucket
	Kind        classify.Kind // asset or entry point
	Content     []byte        // bytes to upload (compressed if Content-Encoding is set)
	Headers     map[string]string
	Fingerprint string // md5 hex of Content, comparable with a single-part S3 ETag

	annotated bool
}

// Source produces files into out until exhausted. Sources run in their own
// goroutine; a returned error stops the phase they feed.
type Source func(ctx context.Context, out chan<- *File) error

// Open reads rel (relative to root) from disk.
func Open(root, rel string, kind classify.Kind) (*File, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return &File{
		Path:    path,
		Rel:     filepath.ToSlash(rel),
		Kind:    kind,
		Content: content,
		Headers: make(map[string]string),
	}, nil
}

// Annotated reports whether the transform stage already processed f.
func (f *File) Annotated() bool {
	return f.annotated
}

// Size is the number of bytes that will be uploaded.
func (f *File) Size() int64 {
	return int64(len(f.Content))
}

// Header returns the value of a header or nil when unset.
func (f *File) Header(name string) *string {
	v, ok := f.Headers[name]
	if !ok {
		return nil
	}
	return &v
}

// 🔍 Fingerprint hashes content the same way S3 computes the ETag of a
// single-part upload.
func Fingerprint(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// FromFiles is a Source that emits the given files in order.
func FromFiles(files ...*File) Source {
	return func(ctx context.Context, out chan<- *File) error {
		for _, f := range files {
			select {
			case out <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}
