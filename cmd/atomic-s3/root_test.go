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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/atomic-s3/pkg/config"
	"github.com/walteh/atomic-s3/pkg/manifest"
	"github.com/walteh/atomic-s3/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

const fixture = "../../pkg/classify/testdata/dist"

func init() {
	color.NoColor = true
}

type harness struct {
	bucket   *storage.MemoryBucket
	cacheDir string
	config   string
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

// newHarness writes a config file that keeps the manifest out of the source
// tree and returns a runner backed by an in-memory bucket.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		bucket:   storage.NewMemoryBucket("site"),
		cacheDir: filepath.Join(dir, "cache"),
		config:   filepath.Join(dir, "atomic-s3.yaml"),
	}
	content := fmt.Sprintf("cacheDir: %s\nentryPoints:\n  - \"**/*.html\"\n", h.cacheDir)
	require.NoError(t, os.WriteFile(h.config, []byte(content), 0644))
	return h
}

func (h *harness) run(args ...string) error {
	h.stdout = &bytes.Buffer{}
	h.stderr = &bytes.Buffer{}

	cmd := newRootCmd(func(ctx context.Context, opts *config.Options) (storage.Bucket, error) {
		return h.bucket, nil
	})
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) target(extra ...string) []string {
	return append([]string{"--config", h.config, "--bucket", "site", "--region", "us-east-1", "--path", fixture}, extra...)
}

func TestPublishCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.target()...))

	out := h.stdout.String()
	assert.Contains(t, out, "atomic-s3 • uploading to s3")
	assert.Contains(t, out, "[publishing s3://site]")
	assert.Contains(t, out, "Published: 12 created")
	assert.Contains(t, out, "finished s3 upload in")
	assert.Len(t, h.bucket.PutKeys(), 12)
	assert.FileExists(t, manifest.Path(h.cacheDir, "site"))
}

func TestPublishCommandSimulate(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.target("--simulate")...))

	out := h.stdout.String()
	assert.Contains(t, out, "[simulating s3://site]")
	assert.Contains(t, out, "s3://site/index.html (created)")
	assert.Contains(t, out, "Cache-Control: no-cache")
	assert.Empty(t, h.bucket.Puts)
	assert.NoFileExists(t, manifest.Path(h.cacheDir, "site"))
}

func TestPublishCommandSilent(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.target("--silent")...))
	assert.Empty(t, h.stdout.String(), "silent prints nothing on success")
	assert.Len(t, h.bucket.PutKeys(), 12)
}

func TestPublishCommandVerbose(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.target("--verbose", "--simulate")...))

	out := h.stdout.String()
	assert.Contains(t, out, "using config from")
	assert.Contains(t, out, "entryPoints")
	assert.Contains(t, out, "**/*.html")
	assert.Contains(t, out, "us-east-1")
}

func TestPublishCommandInvalidOptions(t *testing.T) {
	h := newHarness(t)

	err := h.run("--config", h.config, "--path", fixture)
	require.Error(t, err)

	var verr *config.ValidationError
	assert.True(t, errors.As(err, &verr))
	out := h.stdout.String()
	assert.Contains(t, out, "❌ invalid options")
	assert.Contains(t, out, "  bucket is not defined")
	assert.Contains(t, out, "  region is not defined")
	assert.Empty(t, h.bucket.Puts)
}

func TestPublishCommandUnknownJSONOption(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "atomic-s3.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"path": "dist", "bucketName": "site"}`), 0644))

	err := h.run("--config", path, "--bucket", "site", "--region", "r")
	require.Error(t, err)
	out := h.stdout.String()
	assert.Contains(t, out, "❌ invalid options")
	assert.Contains(t, out, `  unknown option "bucketName"`)
	assert.Empty(t, h.bucket.Puts)
}

func TestPublishCommandMissingConfig(t *testing.T) {
	h := newHarness(t)

	err := h.run("--config", filepath.Join(t.TempDir(), "nope.yaml"), "--bucket", "site", "--region", "r")
	require.Error(t, err)
	assert.Contains(t, h.stdout.String(), "does not exist")
}

func TestVersionFlag(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("--version"))
	assert.Contains(t, h.stdout.String(), "atomic-s3 version info")
	assert.Contains(t, h.stdout.String(), "Go:")
}

func TestStatusCommand(t *testing.T) {
	h := newHarness(t)

	err := h.run(append([]string{"status", "--check"}, h.target()...)...)
	require.ErrorIs(t, err, errChangesPending)
	assert.Contains(t, h.stdout.String(), "12 to be created")
	assert.Contains(t, h.stdout.String(), "  index.html")
	assert.Empty(t, h.bucket.Puts)

	require.NoError(t, h.run(h.target("--silent")...))

	require.NoError(t, h.run(append([]string{"status", "--check"}, h.target()...)...))
	assert.Contains(t, h.stdout.String(), "bucket is up to date")
}

func TestCleanCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.target("--silent")...))
	require.FileExists(t, manifest.Path(h.cacheDir, "site"))

	require.NoError(t, h.run("clean", "--config", h.config, "--bucket", "site"))
	assert.NoFileExists(t, manifest.Path(h.cacheDir, "site"))
	assert.Contains(t, h.stdout.String(), "removed")
}
