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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "atomic-s3.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	type hclConfig struct {
		Path        *string  `hcl:"path,optional"`
		EntryPoints []string `hcl:"entry_points,optional"`
		MaxAge      *float64 `hcl:"max_age,optional"`
		S3Options   *struct {
			Region   string `hcl:"region,optional"`
			Endpoint string `hcl:"endpoint,optional"`
			ACL      string `hcl:"acl,optional"`
			Params   *struct {
				Bucket string `hcl:"bucket,optional"`
			} `hcl:"params,block"`
		} `hcl:"s3options,block"`
		SimulateDeployment bool     `hcl:"simulate_deployment,optional"`
		ForceDeployment    bool     `hcl:"force_deployment,optional"`
		Prefix             string   `hcl:"prefix,optional"`
		Include            []string `hcl:"include,optional"`
		Exclude            []string `hcl:"exclude,optional"`
		GzipExtensions     []string `hcl:"gzip_extensions,optional"`
		GzipEntryPoints    *bool    `hcl:"gzip_entry_points,optional"`
		DeleteStale        bool     `hcl:"delete_stale,optional"`
		Concurrency        int      `hcl:"concurrency,optional"`
		CacheDir           string   `hcl:"cache_dir,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Path:               hclCfg.Path,
		EntryPoints:        hclCfg.EntryPoints,
		MaxAge:             hclCfg.MaxAge,
		SimulateDeployment: hclCfg.SimulateDeployment,
		ForceDeployment:    hclCfg.ForceDeployment,
		Prefix:             hclCfg.Prefix,
		Include:            hclCfg.Include,
		Exclude:            hclCfg.Exclude,
		GzipExtensions:     hclCfg.GzipExtensions,
		GzipEntryPoints:    hclCfg.GzipEntryPoints,
		DeleteStale:        hclCfg.DeleteStale,
		Concurrency:        hclCfg.Concurrency,
		CacheDir:           hclCfg.CacheDir,
	}

	if s3 := hclCfg.S3Options; s3 != nil {
		cfg.S3Options = &S3Options{
			Region:   s3.Region,
			Endpoint: s3.Endpoint,
			ACL:      s3.ACL,
		}
		if s3.Params != nil {
			cfg.S3Options.Params = &Params{Bucket: s3.Params.Bucket}
		}
	}

	return cfg, nil
}
