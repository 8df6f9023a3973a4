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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONParser reads atomic-s3.json. Decode failures are returned as a
// ValidationError naming the offending option.
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".json")
}

// 📝 Parse parses the config from JSON bytes. Exactly one object is allowed.
func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, jsonProblem(data, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, &ValidationError{Problems: []string{"unexpected data after the config object"}}
	}
	return &cfg, nil
}

// jsonProblem turns a decoder error into a ValidationError when it points at a
// specific option or position.
func jsonProblem(data []byte, err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return &ValidationError{Problems: []string{
			fmt.Sprintf("json syntax error on line %d: %s", lineAt(data, syntaxErr.Offset), syntaxErr.Error()),
		}}
	case errors.As(err, &typeErr):
		return &ValidationError{Problems: []string{
			fmt.Sprintf("%s must be a %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	case errors.Is(err, io.EOF):
		return &ValidationError{Problems: []string{"config file is empty"}}
	}

	// the decoder reports unknown fields as a plain error
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return &ValidationError{Problems: []string{"unknown option " + name}}
	}
	return errors.Errorf("parsing JSON: %w", err)
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
