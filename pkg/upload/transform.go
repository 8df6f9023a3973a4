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
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/walteh/atomic-s3/pkg/classify"
	"github.com/walteh/atomic-s3/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// EntryPointCacheControl keeps browsers revalidating unhashed files.
const EntryPointCacheControl = "no-cache"

// 🔄 Transformer attaches destination keys and upload headers to files and
// compresses the ones selected for gzip.
type Transformer struct {
	Prefix          string   // storage folder prepended to every key
	MaxAge          int64    // Cache-Control max-age for assets, in seconds
	GzipExtensions  []string // lower-case asset extensions to compress, with leading dot
	GzipEntryPoints bool     // compress every entry point
	ACL             string   // canned ACL, empty to leave the bucket default
}

// NewTransformer builds a Transformer from validated options.
func NewTransformer(opts *config.Options) *Transformer {
	return &Transformer{
		Prefix:          opts.Prefix,
		MaxAge:          opts.MaxAge,
		GzipExtensions:  opts.GzipExtensions,
		GzipEntryPoints: opts.GzipEntryPoints,
		ACL:             opts.ACL,
	}
}

// Key maps a source-relative path to its bucket key: prefix joined with the
// path, always forward slashes, never a leading slash.
func (t *Transformer) Key(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	key := path.Join(t.Prefix, rel)
	return strings.TrimPrefix(key, "/")
}

// ✨ Apply annotates f. Calling it on an annotated file does nothing.
func (t *Transformer) Apply(f *File) error {
	if f.annotated {
		return nil
	}
	if f.Headers == nil {
		f.Headers = make(map[string]string)
	}

	f.Key = t.Key(f.Rel)

	switch f.Kind {
	case classify.KindAsset:
		maxAge := t.MaxAge
		if maxAge < 0 {
			maxAge = config.DefaultMaxAge
		}
		f.Headers[HeaderCacheControl] = fmt.Sprintf("max-age=%d, public", maxAge)
	case classify.KindEntryPoint:
		f.Headers[HeaderCacheControl] = EntryPointCacheControl
	}

	f.Headers[HeaderContentType] = contentType(f.Rel, f.Content)

	if t.ACL != "" {
		f.Headers[HeaderACL] = t.ACL
	}

	if t.shouldGzip(f) {
		compressed, err := Gzip(f.Content)
		if err != nil {
			return errors.Errorf("compressing %s: %w", f.Rel, err)
		}
		f.Content = compressed
		f.Headers[HeaderContentEncoding] = "gzip"
	}

	f.Fingerprint = Fingerprint(f.Content)
	f.annotated = true
	return nil
}

func (t *Transformer) shouldGzip(f *File) bool {
	if f.Kind == classify.KindEntryPoint {
		return t.GzipEntryPoints
	}
	ext := strings.ToLower(path.Ext(f.Rel))
	for _, e := range t.GzipExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// 📥 Source streams the files of sel through the transform stage.
func (t *Transformer) Source(sel classify.Selection) Source {
	return func(ctx context.Context, out chan<- *File) error {
		logger := zerolog.Ctx(ctx)
		return sel.Walk(ctx, func(rel string) error {
			f, err := Open(sel.Root, rel, sel.Kind)
			if err != nil {
				return err
			}
			if err := t.Apply(f); err != nil {
				return err
			}

			logger.Trace().
				Str("key", f.Key).
				Str("kind", f.Kind.String()).
				Str("fingerprint", f.Fingerprint).
				Msg("file transformed")

			select {
			case out <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
}

// Gzip compresses b. The gzip header carries no name or modification time so
// equal input always yields equal output.
func Gzip(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentType(rel string, content []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(rel))); ct != "" {
		return ct
	}
	return mimetype.Detect(content).String()
}
