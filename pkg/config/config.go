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
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultMaxAge is the Cache-Control max-age (seconds) applied to assets.
	DefaultMaxAge int64 = 3600
	// DefaultCacheDir is where the upload manifest is kept.
	DefaultCacheDir = "."
)

// DefaultEntryPoints selects the files that must be uploaded last.
var DefaultEntryPoints = []string{"**/*.html"}

// DefaultGzipExtensions lists the asset extensions compressed before upload.
var DefaultGzipExtensions = []string{".js", ".json", ".css", ".svg"}

// 📦 Params mirrors the per-request parameters of the bucket client.
type Params struct {
	Bucket string `json:"Bucket,omitempty" yaml:"Bucket,omitempty"`
}

// 🪣 S3Options describes the storage target
type S3Options struct {
	Region   string  `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // S3-compatible endpoint override
	ACL      string  `json:"acl,omitempty" yaml:"acl,omitempty"`
	Params   *Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// 📚 Config is the partially-filled configuration handed over by the CLI or a config file.
// Nil pointers mean "not set"; an empty Path is a valid path.
type Config struct {
	Path               *string    `json:"path,omitempty" yaml:"path,omitempty"`
	EntryPoints        []string   `json:"entryPoints,omitempty" yaml:"entryPoints,omitempty"`
	MaxAge             *float64   `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
	S3Options          *S3Options `json:"s3options,omitempty" yaml:"s3options,omitempty"`
	SimulateDeployment bool       `json:"simulateDeployment,omitempty" yaml:"simulateDeployment,omitempty"`
	ForceDeployment    bool       `json:"forceDeployment,omitempty" yaml:"forceDeployment,omitempty"`

	Prefix          string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Include         []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude         []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	GzipExtensions  []string `json:"gzipExtensions,omitempty" yaml:"gzipExtensions,omitempty"`
	GzipEntryPoints *bool    `json:"gzipEntryPoints,omitempty" yaml:"gzipEntryPoints,omitempty"`
	DeleteStale     bool     `json:"deleteStale,omitempty" yaml:"deleteStale,omitempty"`
	Concurrency     int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	CacheDir        string   `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`
}

// 🔧 Overrides holds values given on the command line. Zero values are ignored.
type Overrides struct {
	Path        *string
	Bucket      string
	Region      string
	Endpoint    string
	Simulate    bool
	Force       bool
	DeleteStale bool
	Concurrency int
}

// 🎯 Options is the validated, fully-populated configuration for one run.
// Built once by Normalize and treated as read-only afterwards.
type Options struct {
	Path     string
	Bucket   string
	Region   string
	Endpoint string
	ACL      string
	Prefix   string

	EntryPoints    []string
	Include        []string
	Exclude        []string
	GzipExtensions []string

	GzipEntryPoints bool
	MaxAge          int64
	Simulate        bool
	Force           bool
	DeleteStale     bool
	Concurrency     int
	CacheDir        string
}

// ❌ ValidationError carries every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid options: " + strings.Join(e.Problems, "; ")
}

// Apply overlays command line values onto the config. The storage target
// objects are created on demand so a flag alone can satisfy validation.
func (cfg *Config) Apply(o Overrides) {
	if cfg.S3Options == nil {
		cfg.S3Options = &S3Options{}
	}
	if cfg.S3Options.Params == nil {
		cfg.S3Options.Params = &Params{}
	}
	if o.Bucket != "" {
		cfg.S3Options.Params.Bucket = o.Bucket
	}
	if o.Region != "" {
		cfg.S3Options.Region = o.Region
	}
	if o.Endpoint != "" {
		cfg.S3Options.Endpoint = o.Endpoint
	}
	if o.Path != nil {
		p := *o.Path
		cfg.Path = &p
	}
	if o.Simulate {
		cfg.SimulateDeployment = true
	}
	if o.Force {
		cfg.ForceDeployment = true
	}
	if o.DeleteStale {
		cfg.DeleteStale = true
	}
	if o.Concurrency != 0 {
		cfg.Concurrency = o.Concurrency
	}
}

// 📋 Prepare returns a deep copy of cfg with default entry points filled in.
// The caller's config is never modified.
func Prepare(cfg *Config) *Config {
	out := &Config{}
	if cfg != nil {
		*out = *cfg
	}

	if out.Path != nil {
		p := *out.Path
		out.Path = &p
	}
	if out.MaxAge != nil {
		m := *out.MaxAge
		out.MaxAge = &m
	}
	if out.GzipEntryPoints != nil {
		g := *out.GzipEntryPoints
		out.GzipEntryPoints = &g
	}
	if out.S3Options != nil {
		s3 := *out.S3Options
		if s3.Params != nil {
			params := *s3.Params
			s3.Params = &params
		}
		out.S3Options = &s3
	}

	out.EntryPoints = clone(out.EntryPoints)
	out.Include = clone(out.Include)
	out.Exclude = clone(out.Exclude)
	out.GzipExtensions = clone(out.GzipExtensions)

	if len(out.EntryPoints) == 0 {
		out.EntryPoints = clone(DefaultEntryPoints)
	}

	return out
}

// 🔍 Validate reports every problem with cfg at once, or nil when it is usable.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Problems: []string{"no options defined"}}
	}

	var problems []string

	if cfg.Path == nil {
		problems = append(problems, "path must be defined")
	}

	if cfg.S3Options == nil {
		problems = append(problems, "s3options must be defined")
	}

	if cfg.S3Options != nil && cfg.S3Options.Params == nil {
		problems = append(problems, "s3options.params is not defined")
	}

	if cfg.S3Options != nil && cfg.S3Options.Params != nil && cfg.S3Options.Params.Bucket == "" {
		problems = append(problems, "bucket is not defined (should be defined via command line "+
			"option --bucket or s3options.params.Bucket)")
	}

	if cfg.S3Options == nil || cfg.S3Options.Region == "" {
		problems = append(problems, "region is not defined (should be defined via command line "+
			"option --region or s3options.region)")
	}

	for _, p := range cfg.EntryPoints {
		if !doublestar.ValidatePattern(p) {
			problems = append(problems, fmt.Sprintf("invalid entry point pattern %q", p))
		}
	}
	for _, p := range append(clone(cfg.Include), cfg.Exclude...) {
		if !doublestar.ValidatePattern(strings.TrimPrefix(p, "!")) {
			problems = append(problems, fmt.Sprintf("invalid asset pattern %q", p))
		}
	}

	// non-finite values fall back to the default in Normalize
	if v := cfg.MaxAge; v != nil && !math.IsInf(*v, 0) {
		switch {
		case *v < 0:
			problems = append(problems, "maxAge must not be negative")
		case *v >= math.MaxInt64:
			problems = append(problems, "maxAge is too large")
		}
	}

	if cfg.Concurrency < 0 {
		problems = append(problems, "concurrency must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// 🏭 Normalize prepares and validates cfg, then converts it into Options.
func Normalize(cfg *Config) (*Options, error) {
	prepared := Prepare(cfg)
	if err := Validate(prepared); err != nil {
		return nil, err
	}

	opts := &Options{
		Path:            *prepared.Path,
		Bucket:          prepared.S3Options.Params.Bucket,
		Region:          prepared.S3Options.Region,
		Endpoint:        prepared.S3Options.Endpoint,
		ACL:             prepared.S3Options.ACL,
		Prefix:          strings.Trim(strings.ReplaceAll(prepared.Prefix, "\\", "/"), "/"),
		EntryPoints:     prepared.EntryPoints,
		Include:         prepared.Include,
		Exclude:         prepared.Exclude,
		GzipExtensions:  normalizeExtensions(prepared.GzipExtensions),
		GzipEntryPoints: true,
		MaxAge:          maxAge(prepared.MaxAge),
		Simulate:        prepared.SimulateDeployment,
		Force:           prepared.ForceDeployment,
		DeleteStale:     prepared.DeleteStale,
		Concurrency:     prepared.Concurrency,
		CacheDir:        prepared.CacheDir,
	}

	if prepared.GzipEntryPoints != nil {
		opts.GzipEntryPoints = *prepared.GzipEntryPoints
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = runtime.NumCPU() * 2
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir
	}

	return opts, nil
}

// maxAge falls back to the default when unset or not a finite number.
// Validate has already rejected finite values outside [0, MaxInt64).
func maxAge(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v >= math.MaxInt64 {
		return DefaultMaxAge
	}
	return int64(*v)
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return clone(DefaultGzipExtensions)
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func clone(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
