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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 40 // Base width for the key
	kindWidth   = 12 // Width for the file kind
	statusWidth = 10 // Width for status text
)

// 🎯 FormatFileOperation formats one key for display
func FormatFileOperation(key, kind, detail string, state State) string {
	var prefix string
	switch state {
	case StateCreated:
		prefix = color.GreenString("✓")
	case StateUpdated:
		prefix = color.YellowString("⟳")
	case StateDeleted:
		prefix = color.RedString("✗")
	case StateError:
		prefix = color.RedString("!")
	case StateSimulated:
		prefix = color.CyanString("~")
	default:
		prefix = color.HiBlackString("-")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, key)
	kindPart := fmt.Sprintf("%-*s", kindWidth, kind)
	statusPart := fmt.Sprintf("%-*s", statusWidth, detail)

	return strings.TrimRight(fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		kindPart,
		statusPart,
	), " ")
}
