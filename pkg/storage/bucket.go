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

// Package storage talks to the object store that receives published files.
package storage

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrNotFound is returned by Head when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ErrForbidden is returned by Head when the store refused the lookup. S3 does
// this for missing keys when the caller may not list the bucket.
var ErrForbidden = errors.New("object lookup forbidden")

// 📤 PutInput describes a single object write. Optional headers are nil when
// they should not be sent.
type PutInput struct {
	Key             string
	Body            []byte
	ContentType     *string
	ContentEncoding *string
	CacheControl    *string
	ACL             *string
}

// PutOutput is what the store acknowledged.
type PutOutput struct {
	Location string
	ETag     string
}

// 📦 Object is the remote view of a stored key.
type Object struct {
	Key  string
	ETag string
	Size int64
}

// 🪣 Bucket is the minimal object store API the publisher needs.
// Implementations must be safe for concurrent use.
type Bucket interface {
	Name() string
	Put(ctx context.Context, in *PutInput) (*PutOutput, error)
	// Head returns ErrNotFound when the key does not exist and ErrForbidden
	// when the lookup was denied.
	Head(ctx context.Context, key string) (*Object, error)
	// List calls fn for every object whose key starts with prefix.
	List(ctx context.Context, prefix string, fn func(Object) error) error
	Delete(ctx context.Context, key string) error
}

// NormalizeETag strips the quotes S3 puts around ETag values.
func NormalizeETag(etag string) string {
	return strings.Trim(etag, `"`)
}
