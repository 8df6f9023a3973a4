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

// Package manifest remembers what was uploaded to a bucket so unchanged files
// can be skipped on the next run.
package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// FilePrefix starts the name of every manifest file.
const FilePrefix = ".atomic-s3-"

// 💾 Manifest maps bucket keys to the fingerprint of their last acknowledged
// upload. Safe for concurrent use.
type Manifest struct {
	path string

	mu      sync.RWMutex
	entries map[string]string
	dirty   bool
}

// Path returns where the manifest for bucket lives inside dir.
func Path(dir, bucket string) string {
	return filepath.Join(dir, FilePrefix+bucket)
}

// 📂 Open loads the manifest for bucket. A missing file yields an empty
// manifest; an unreadable one is logged and treated as empty. With reset the
// existing file is removed first.
func Open(ctx context.Context, dir, bucket string, reset bool) (*Manifest, error) {
	logger := zerolog.Ctx(ctx)

	m := &Manifest{
		path:    Path(dir, bucket),
		entries: make(map[string]string),
	}

	if reset {
		if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Errorf("removing manifest %s: %w", m.path, err)
		}
		logger.Debug().Str("path", m.path).Msg("manifest reset")
		return m, nil
	}

	content, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", m.path).Msg("ignoring unreadable manifest")
		}
		return m, nil
	}

	if err := json.Unmarshal(content, &m.entries); err != nil {
		logger.Warn().Err(err).Str("path", m.path).Msg("ignoring corrupt manifest")
		m.entries = make(map[string]string)
		return m, nil
	}
	if m.entries == nil {
		m.entries = make(map[string]string)
	}

	logger.Debug().Str("path", m.path).Int("entries", len(m.entries)).Msg("manifest loaded")
	return m, nil
}

// Path returns the file backing m.
func (m *Manifest) Path() string {
	return m.path
}

// Get returns the fingerprint recorded for key.
func (m *Manifest) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Set records fingerprint for key. Only call it once the store acknowledged
// the object.
func (m *Manifest) Set(key, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[key] == fingerprint {
		return
	}
	m.entries[key] = fingerprint
	m.dirty = true
}

// Remove forgets key.
func (m *Manifest) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	m.dirty = true
}

// Len is the number of recorded keys.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// 💾 Save writes the manifest atomically when it changed since Open.
func (m *Manifest) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	content, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return errors.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return errors.Errorf("creating manifest directory: %w", err)
	}

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp manifest: %w", err)
	}

	m.dirty = false
	zerolog.Ctx(ctx).Debug().Str("path", m.path).Int("entries", len(m.entries)).Msg("manifest saved")
	return nil
}
