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

package publish

// ❌ UploadError is returned when a key could not be published. It stops the
// phase it happened in and every phase after it.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return "publishing " + e.Key + ": " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
