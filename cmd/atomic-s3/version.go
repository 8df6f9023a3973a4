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
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// VersionInfo is what the binary knows about its own build
type VersionInfo struct {
	Version   string
	GoVersion string
	Platform  string
	Revision  string
	Time      string
	Modified  bool
	Deps      map[string]string // module path -> version, for the storage stack
}

// GetVersionInfo reads the build info embedded by the go toolchain
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Deps:      map[string]string{},
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if v := buildInfo.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.Time = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	for _, dep := range buildInfo.Deps {
		if strings.HasPrefix(dep.Path, "github.com/aws/aws-sdk-go-v2/service/s3") {
			info.Deps[dep.Path] = dep.Version
		}
	}

	return info
}

// FormatVersion returns the text printed by --version
func FormatVersion() string {
	info := GetVersionInfo()

	revision := info.Revision
	if revision == "" {
		revision = "unknown"
	}
	if info.Modified {
		revision += " (modified)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 atomic-s3 version info:\n")
	fmt.Fprintf(&b, "Version:   %s\n", info.Version)
	fmt.Fprintf(&b, "Revision:  %s\n", revision)
	if info.Time != "" {
		fmt.Fprintf(&b, "Built:     %s\n", info.Time)
	}
	fmt.Fprintf(&b, "Go:        %s\n", info.GoVersion)
	fmt.Fprintf(&b, "Platform:  %s\n", info.Platform)
	for path, version := range info.Deps {
		fmt.Fprintf(&b, "S3 SDK:    %s %s\n", path, version)
	}
	return b.String()
}
