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

package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Parser
	}{
		{name: "yaml_file", filename: "atomic-s3.yaml", want: &YAMLParser{}},
		{name: "yml_file", filename: "atomic-s3.yml", want: &YAMLParser{}},
		{name: "json_file", filename: "atomic-s3.JSON", want: &JSONParser{}},
		{name: "hcl_file", filename: "atomic-s3.hcl", want: &HCLParser{}},
		{name: "unknown_extension", filename: "atomic-s3.config.js", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got, "no parser should match")
				return
			}
			assert.IsType(t, tt.want, got, "parser type should match")
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml",
			filename: "atomic-s3.yaml",
			content: `
path: dist
entryPoints:
  - "**/*.html"
  - "*.{png,ico}"
maxAge: 600
s3options:
  region: eu-west-1
  params:
    Bucket: lucify-test-bucket
simulateDeployment: true
gzipExtensions: [".js"]
`,
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Path)
				assert.Equal(t, "dist", *cfg.Path)
				assert.Equal(t, []string{"**/*.html", "*.{png,ico}"}, cfg.EntryPoints)
				require.NotNil(t, cfg.MaxAge)
				assert.Equal(t, 600.0, *cfg.MaxAge)
				assert.Equal(t, "eu-west-1", cfg.S3Options.Region)
				assert.Equal(t, "lucify-test-bucket", cfg.S3Options.Params.Bucket)
				assert.True(t, cfg.SimulateDeployment)
				assert.Equal(t, []string{".js"}, cfg.GzipExtensions)
			},
		},
		{
			name:     "yaml_infinite_max_age",
			filename: "atomic-s3.yml",
			content:  "path: ''\nmaxAge: .inf\n",
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Path)
				assert.Equal(t, "", *cfg.Path, "empty path should survive parsing")
				require.NotNil(t, cfg.MaxAge)
				assert.True(t, math.IsInf(*cfg.MaxAge, 1))
			},
		},
		{
			name:        "yaml_unknown_field",
			filename:    "atomic-s3.yaml",
			content:     "bogus: true\n",
			errContains: "parsing YAML",
		},
		{
			name:     "json",
			filename: "atomic-s3.json",
			content: `{
				"path": "dist",
				"forceDeployment": true,
				"s3options": {"region": "us-east-1", "endpoint": "http://localhost:4566", "params": {"Bucket": "b"}}
			}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "dist", *cfg.Path)
				assert.True(t, cfg.ForceDeployment)
				assert.Equal(t, "http://localhost:4566", cfg.S3Options.Endpoint)
				assert.Equal(t, "b", cfg.S3Options.Params.Bucket)
				assert.Nil(t, cfg.MaxAge)
			},
		},
		{
			name:        "json_unknown_field",
			filename:    "atomic-s3.json",
			content:     `{"bucket": "b"}`,
			errContains: `unknown option "bucket"`,
		},
		{
			name:     "hcl",
			filename: "atomic-s3.hcl",
			content: `
path         = "dist"
entry_points = ["**/*.html", "**/embed.js"]
max_age      = 120
prefix       = "v2"
delete_stale = true

s3options {
  region = "eu-north-1"
  params {
    bucket = "hcl-bucket"
  }
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "dist", *cfg.Path)
				assert.Equal(t, []string{"**/*.html", "**/embed.js"}, cfg.EntryPoints)
				assert.Equal(t, 120.0, *cfg.MaxAge)
				assert.Equal(t, "v2", cfg.Prefix)
				assert.True(t, cfg.DeleteStale)
				require.NotNil(t, cfg.S3Options)
				assert.Equal(t, "eu-north-1", cfg.S3Options.Region)
				require.NotNil(t, cfg.S3Options.Params)
				assert.Equal(t, "hcl-bucket", cfg.S3Options.Params.Bucket)
			},
		},
		{
			name:     "hcl_without_storage_block",
			filename: "atomic-s3.hcl",
			content:  `path = "dist"`,
			check: func(t *testing.T, cfg *Config) {
				assert.Nil(t, cfg.S3Options, "missing block should stay nil so validation can report it")
			},
		},
		{
			name:        "unsupported_extension",
			filename:    "atomic-s3.toml",
			content:     "path = 'dist'",
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zerolog.New(zerolog.NewTestWriter(t))
			ctx := logger.WithContext(context.Background())

			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(ctx, path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "atomic-s3.yaml")

	cfg, err := LoadOptional(ctx, missing, false)
	require.NoError(t, err, "missing default file is fine")
	assert.Equal(t, &Config{}, cfg)

	_, err = LoadOptional(ctx, missing, true)
	require.Error(t, err, "missing explicit file is an error")
	assert.Contains(t, err.Error(), "does not exist")
}

func TestJSONParserProblems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		problem string
	}{
		{name: "unknown_field", content: `{"path": "dist", "bucket": "b"}`, problem: `unknown option "bucket"`},
		{name: "wrong_type", content: `{"maxAge": "1h"}`, problem: "maxAge must be a float64, got string"},
		{name: "syntax", content: "{\n  \"path\": \"dist\",\n  }", problem: "json syntax error on line 3"},
		{name: "trailing_data", content: `{"path": "dist"} {}`, problem: "unexpected data after the config object"},
		{name: "empty", content: "  ", problem: "config file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONParser{}).Parse(context.Background(), []byte(tt.content))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "decode problems should be a ValidationError")
			require.Len(t, verr.Problems, 1)
			assert.Contains(t, verr.Problems[0], tt.problem)
		})
	}
}
