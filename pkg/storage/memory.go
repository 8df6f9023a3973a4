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

package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// 🧪 MemoryBucket is an in-process Bucket. It records every call so tests can
// assert on what was written and in which order.
type MemoryBucket struct {
	mu sync.Mutex

	name    string
	objects map[string]*StoredObject

	// Puts records every put attempt in call order, failed ones included.
	Puts []*RecordedPut
	// Heads records the keys passed to Head.
	Heads []string
	// Deletes records the keys passed to Delete.
	Deletes []string

	// PutFunc runs before a put is stored. A returned error fails the put.
	// It is called without the lock held so it may block.
	PutFunc func(ctx context.Context, in *PutInput) error
}

// StoredObject is an object held by MemoryBucket.
type StoredObject struct {
	Body            []byte
	ETag            string
	ContentType     string
	ContentEncoding string
	CacheControl    string
	ACL             string
}

// RecordedPut is one put attempt.
type RecordedPut struct {
	Input *PutInput
	Err   error
}

var _ Bucket = (*MemoryBucket)(nil)

func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{
		name:    name,
		objects: make(map[string]*StoredObject),
	}
}

func (m *MemoryBucket) Name() string {
	return m.name
}

func (m *MemoryBucket) Put(ctx context.Context, in *PutInput) (*PutOutput, error) {
	var err error
	if m.PutFunc != nil {
		err = m.PutFunc(ctx, in)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Puts = append(m.Puts, &RecordedPut{Input: in, Err: err})
	if err != nil {
		return nil, err
	}

	sum := md5.Sum(in.Body)
	obj := &StoredObject{
		Body:            append([]byte(nil), in.Body...),
		ETag:            hex.EncodeToString(sum[:]),
		ContentType:     deref(in.ContentType),
		ContentEncoding: deref(in.ContentEncoding),
		CacheControl:    deref(in.CacheControl),
		ACL:             deref(in.ACL),
	}
	m.objects[in.Key] = obj

	return &PutOutput{
		Location: fmt.Sprintf("memory://%s/%s", m.name, in.Key),
		ETag:     obj.ETag,
	}, nil
}

func (m *MemoryBucket) Head(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Heads = append(m.Heads, key)
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{Key: key, ETag: obj.ETag, Size: int64(len(obj.Body))}, nil
}

// List walks keys in lexical order, like S3.
func (m *MemoryBucket) List(ctx context.Context, prefix string, fn func(Object) error) error {
	m.mu.Lock()
	var objs []Object
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objs = append(objs, Object{Key: key, ETag: obj.ETag, Size: int64(len(obj.Body))})
		}
	}
	m.mu.Unlock()

	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })

	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryBucket) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deletes = append(m.Deletes, key)
	delete(m.objects, key)
	return nil
}

// Seed stores body under key without recording a put.
func (m *MemoryBucket) Seed(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := md5.Sum(body)
	m.objects[key] = &StoredObject{Body: append([]byte(nil), body...), ETag: hex.EncodeToString(sum[:])}
}

// Object returns the stored object for key or nil.
func (m *MemoryBucket) Object(key string) *StoredObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key]
}

// Keys lists the stored keys in lexical order.
func (m *MemoryBucket) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PutKeys lists the keys of successful puts in call order.
func (m *MemoryBucket) PutKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for _, p := range m.Puts {
		if p.Err == nil {
			keys = append(keys, p.Input.Key)
		}
	}
	return keys
}

// Reset forgets recorded calls but keeps stored objects.
func (m *MemoryBucket) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Puts = nil
	m.Heads = nil
	m.Deletes = nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
