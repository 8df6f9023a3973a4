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
Package status reports what a publish run did to each key.

	+-----------+    Result    +-----------+
	| publisher | -----------> |  Reporter |
	+-----------+   (chan)     +-----+-----+
	                                 |
	                   +-------------+-------------+
	                   |                           |
	             +-----+-----+               +-----+-----+
	             |  console  |               |  zerolog  |
	             |  (color)  |               |  events   |
	             +-----------+               +-----------+

🎯 Purpose:
  - Name the outcome of every key (created, updated, cached, deleted, simulated, error)
  - Print one aligned line per key, or the target and headers in simulate mode
  - Emit a structured event per key for machine consumption
  - Total everything into a Summary with human readable byte counts

🔄 Flow:
 1. The publisher sends Results in dispatch order
 2. Reporter.Run drains the channel until it is closed
 3. Reporter.Finish prints the summary line

🔍 Example:

	reporter := status.NewReporter(os.Stdout, "my-bucket", false)
	done := make(chan status.Summary)
	go func() { done <- reporter.Run(ctx, results) }()
	// ... publish, then close(results)
	<-done
	reporter.Finish(ctx)
*/
package status
