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

/*
Package operation wires the pipeline stages into one publish run.

	+-----------+     +----------+     +-----------+
	|  config   | --> | classify | --> |  upload   |
	| Normalize |     | Selection|     |Transformer|
	+-----------+     +----------+     +-----+-----+
	                                         |
	+-----------+     +----------+     +-----v-----+
	|  status   | <-- | publish  | <-- | manifest  |
	| Reporter  |     |Publisher |     |  + Differ |
	+-----------+     +----+-----+     +-----------+
	                       |
	                  +----v-----+
	                  | storage  |
	                  |  Bucket  |
	                  +----------+

🎯 Purpose:
  - Publish: normalize, open the manifest, stream assets then entry points,
    report, save the manifest
  - Status: the same run in simulate mode, answering "would anything change"
  - Clean: forget the manifest of a bucket

🔄 Flow:
 1. config.Normalize validates everything up front; nothing touches the
    network before it succeeds
 2. the asset selection and the entry point selection become two sources
 3. publish.Publisher runs the asset phase, waits, then the entry phase
 4. every result goes through status.Reporter in dispatch order
 5. the manifest is saved unless simulating

🔍 Example:

	summary, err := operation.Publish(ctx, cfg, operation.Options{
		Console: os.Stdout,
	})
*/
package operation
