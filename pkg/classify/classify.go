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

// Package classify splits a build directory into entry points and assets.
package classify

import (
	"context"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultRoot is used when the configured source path is empty.
const DefaultRoot = "dist"

// DefaultAssetPatterns selects every file.
var DefaultAssetPatterns = []string{"**"}

// 🏷️ Kind tells which upload phase a file belongs to
type Kind int

const (
	KindAsset Kind = iota
	KindEntryPoint
)

func (k Kind) String() string {
	switch k {
	case KindEntryPoint:
		return "entrypoint"
	default:
		return "asset"
	}
}

// ❌ ClassificationError is returned when the source directory cannot be read.
type ClassificationError struct {
	Root string
	Err  error
}

func (e *ClassificationError) Error() string {
	return "reading source directory " + e.Root + ": " + e.Err.Error()
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// 🎯 Selection is a set of glob patterns rooted at a directory.
// A file is selected when it matches any Include pattern and no Exclude pattern.
type Selection struct {
	Root    string
	Kind    Kind
	Include []string
	Exclude []string
}

// EntryPoints selects the files matching any of patterns.
func EntryPoints(root string, patterns []string) Selection {
	return Selection{
		Root:    rootOrDefault(root),
		Kind:    KindEntryPoint,
		Include: append([]string(nil), patterns...),
	}
}

// Assets selects everything matched by include (default: every file) minus
// anything matched by exclude or by an entry point pattern. Include patterns
// written as "!pattern" are treated as excludes.
func Assets(root string, entryPoints, include, exclude []string) Selection {
	sel := Selection{
		Root: rootOrDefault(root),
		Kind: KindAsset,
	}

	for _, p := range include {
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			sel.Exclude = append(sel.Exclude, neg)
			continue
		}
		sel.Include = append(sel.Include, p)
	}
	if len(sel.Include) == 0 {
		sel.Include = append(sel.Include, DefaultAssetPatterns...)
	}

	for _, p := range exclude {
		sel.Exclude = append(sel.Exclude, strings.TrimPrefix(p, "!"))
	}
	sel.Exclude = append(sel.Exclude, entryPoints...)

	return sel
}

// Matches reports whether rel (slash separated, relative to Root) is selected.
func (s Selection) Matches(rel string) bool {
	return matchAny(s.Include, rel) && !matchAny(s.Exclude, rel)
}

// 🚶 Walk calls fn for every selected file, in traversal order, with its path
// relative to Root. Files matched by more than one include pattern are
// reported once.
func (s Selection) Walk(ctx context.Context, fn func(rel string) error) error {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(s.Root)
	if err != nil {
		return &ClassificationError{Root: s.Root, Err: err}
	}
	if !info.IsDir() {
		return &ClassificationError{Root: s.Root, Err: errors.New("not a directory")}
	}

	fsys := os.DirFS(s.Root)
	seen := make(map[string]struct{})

	for _, pattern := range s.Include {
		err := doublestar.GlobWalk(fsys, pattern, func(rel string, d fs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := seen[rel]; ok {
				return nil
			}
			seen[rel] = struct{}{}

			if matchAny(s.Exclude, rel) {
				logger.Trace().Str("file", rel).Str("kind", s.Kind.String()).Msg("excluded by pattern")
				return nil
			}
			return fn(rel)
		}, doublestar.WithFilesOnly(), doublestar.WithNoHidden(), doublestar.WithFailOnIOErrors())
		if err != nil {
			if ctx.Err() != nil {
				return errors.Errorf("walking %s: %w", s.Root, ctx.Err())
			}
			var perr *fs.PathError
			if errors.As(err, &perr) {
				return &ClassificationError{Root: s.Root, Err: err}
			}
			return errors.Errorf("walking %s with %q: %w", s.Root, pattern, err)
		}
	}

	return nil
}

// List collects the selected files.
func (s Selection) List(ctx context.Context) ([]string, error) {
	var files []string
	err := s.Walk(ctx, func(rel string) error {
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// 🔀 Partition lists entry points and assets of root. The two lists are
// disjoint by construction.
func Partition(ctx context.Context, root string, entryPoints, include, exclude []string) ([]string, []string, error) {
	entries, err := EntryPoints(root, entryPoints).List(ctx)
	if err != nil {
		return nil, nil, err
	}
	assets, err := Assets(root, entryPoints, include, exclude).List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return entries, assets, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

func rootOrDefault(root string) string {
	if root == "" {
		return DefaultRoot
	}
	return root
}
