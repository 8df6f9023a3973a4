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
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/atomic-s3/pkg/classify"
	"github.com/walteh/atomic-s3/pkg/config"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func newFile(rel string, kind classify.Kind, content string) *File {
	return &File{Rel: rel, Kind: kind, Content: []byte(content)}
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err, "content should be valid gzip")
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func defaultTransformer() *Transformer {
	return &Transformer{
		MaxAge:          config.DefaultMaxAge,
		GzipExtensions:  config.DefaultGzipExtensions,
		GzipEntryPoints: true,
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		transformer  *Transformer
		file         *File
		wantKey      string
		wantGzip     bool
		wantCache    string
		wantTypeLike string
	}{
		{
			name:         "compressed_asset",
			transformer:  defaultTransformer(),
			file:         newFile("js/app.3f2a1c.js", classify.KindAsset, "console.log('hi')"),
			wantKey:      "js/app.3f2a1c.js",
			wantGzip:     true,
			wantCache:    "max-age=3600, public",
			wantTypeLike: "javascript",
		},
		{
			name:         "uncompressed_asset",
			transformer:  defaultTransformer(),
			file:         newFile("img/hero.png", classify.KindAsset, "\x89PNG\r\n\x1a\n"),
			wantKey:      "img/hero.png",
			wantGzip:     false,
			wantCache:    "max-age=3600, public",
			wantTypeLike: "image/png",
		},
		{
			name:         "upper_case_extension",
			transformer:  defaultTransformer(),
			file:         newFile("css/MAIN.CSS", classify.KindAsset, "body{}"),
			wantKey:      "css/MAIN.CSS",
			wantGzip:     true,
			wantCache:    "max-age=3600, public",
			wantTypeLike: "text/css",
		},
		{
			name:         "entry_point",
			transformer:  defaultTransformer(),
			file:         newFile("index.html", classify.KindEntryPoint, "<html></html>"),
			wantKey:      "index.html",
			wantGzip:     true,
			wantCache:    EntryPointCacheControl,
			wantTypeLike: "text/html",
		},
		{
			name: "entry_point_without_gzip",
			transformer: &Transformer{
				MaxAge:         config.DefaultMaxAge,
				GzipExtensions: config.DefaultGzipExtensions,
			},
			file:         newFile("index.html", classify.KindEntryPoint, "<html></html>"),
			wantKey:      "index.html",
			wantGzip:     false,
			wantCache:    EntryPointCacheControl,
			wantTypeLike: "text/html",
		},
		{
			name: "prefixed_key",
			transformer: &Transformer{
				Prefix:         "site/v2",
				MaxAge:         60,
				GzipExtensions: config.DefaultGzipExtensions,
			},
			file:         newFile("data/config.json", classify.KindAsset, `{"a":1}`),
			wantKey:      "site/v2/data/config.json",
			wantGzip:     true,
			wantCache:    "max-age=60, public",
			wantTypeLike: "json",
		},
		{
			name:         "backslash_path",
			transformer:  defaultTransformer(),
			file:         newFile(`fonts\inter.woff2`, classify.KindAsset, "wOF2"),
			wantKey:      "fonts/inter.woff2",
			wantGzip:     false,
			wantCache:    "max-age=3600, public",
			wantTypeLike: "",
		},
		{
			name:         "unknown_extension_sniffed",
			transformer:  defaultTransformer(),
			file:         newFile("LICENSE", classify.KindAsset, "plain words"),
			wantKey:      "LICENSE",
			wantGzip:     false,
			wantCache:    "max-age=3600, public",
			wantTypeLike: "text/plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := string(tt.file.Content)

			require.NoError(t, tt.transformer.Apply(tt.file))

			assert.True(t, tt.file.Annotated(), "file should be annotated")
			assert.Equal(t, tt.wantKey, tt.file.Key, "key should match")
			assert.Equal(t, tt.wantCache, tt.file.Headers[HeaderCacheControl], "cache control should match")
			assert.Contains(t, tt.file.Headers[HeaderContentType], tt.wantTypeLike, "content type should match")
			assert.NotContains(t, tt.file.Key, ".gz", "key must never gain a .gz suffix")
			assert.Equal(t, Fingerprint(tt.file.Content), tt.file.Fingerprint, "fingerprint should cover uploaded bytes")

			if tt.wantGzip {
				assert.Equal(t, "gzip", tt.file.Headers[HeaderContentEncoding])
				assert.Equal(t, original, gunzip(t, tt.file.Content), "content should round trip")
			} else {
				assert.Nil(t, tt.file.Header(HeaderContentEncoding))
				assert.Equal(t, original, string(tt.file.Content), "content should be untouched")
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	tr := defaultTransformer()
	f := newFile("js/app.js", classify.KindAsset, "let x = 1")

	require.NoError(t, tr.Apply(f))
	content := append([]byte(nil), f.Content...)
	fingerprint := f.Fingerprint

	require.NoError(t, tr.Apply(f))
	assert.Equal(t, content, f.Content, "second apply must not compress again")
	assert.Equal(t, fingerprint, f.Fingerprint)
}

func TestGzipIsDeterministic(t *testing.T) {
	a, err := Gzip([]byte("same input"))
	require.NoError(t, err)
	b, err := Gzip([]byte("same input"))
	require.NoError(t, err)
	assert.Equal(t, a, b, "equal input should give equal output")
}

func TestACL(t *testing.T) {
	tr := defaultTransformer()
	f := newFile("a.png", classify.KindAsset, "x")
	require.NoError(t, tr.Apply(f))
	assert.Nil(t, f.Header(HeaderACL), "acl is only sent when configured")

	tr.ACL = "public-read"
	g := newFile("b.png", classify.KindAsset, "x")
	require.NoError(t, tr.Apply(g))
	assert.Equal(t, "public-read", g.Headers[HeaderACL])
}

func TestNewTransformer(t *testing.T) {
	tr := NewTransformer(&config.Options{
		Prefix:          "p",
		MaxAge:          10,
		GzipExtensions:  []string{".js"},
		GzipEntryPoints: true,
		ACL:             "private",
	})
	assert.Equal(t, "p/x.js", tr.Key("x.js"))
	assert.Equal(t, int64(10), tr.MaxAge)
	assert.Equal(t, "private", tr.ACL)
}

func TestSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "js"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "app.1.js"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "app.2.js"), []byte("2"), 0644))

	ctx := testContext(t)
	tr := defaultTransformer()
	tr.Prefix = "www"

	out := make(chan *File, 8)
	err := tr.Source(classify.Assets(root, []string{"**/*.html"}, nil, nil))(ctx, out)
	require.NoError(t, err)
	close(out)

	var keys []string
	for f := range out {
		assert.True(t, f.Annotated())
		assert.Equal(t, classify.KindAsset, f.Kind)
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"www/js/app.1.js", "www/js/app.2.js"}, keys)
}

func TestSourceStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	out := make(chan *File)
	err := defaultTransformer().Source(classify.Assets(root, nil, nil, nil))(ctx, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromFiles(t *testing.T) {
	a := newFile("a", classify.KindAsset, "a")
	b := newFile("b", classify.KindAsset, "b")

	out := make(chan *File, 2)
	require.NoError(t, FromFiles(a, b)(context.Background(), out))
	close(out)

	assert.Same(t, a, <-out)
	assert.Same(t, b, <-out)
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "f.txt"), []byte("hello"), 0644))

	f, err := Open(root, "sub/f.txt", classify.KindEntryPoint)
	require.NoError(t, err)
	assert.Equal(t, "sub/f.txt", f.Rel)
	assert.Equal(t, filepath.Join(root, "sub", "f.txt"), f.Path)
	assert.Equal(t, int64(5), f.Size())
	assert.False(t, f.Annotated())

	_, err = Open(root, "missing", classify.KindAsset)
	assert.Error(t, err)
}
