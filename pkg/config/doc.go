/*
Package config turns user input into the validated options of one publish run.

	+-------------+     +-------------+     +-------------+
	| YAML / JSON |     |  CLI flags  |     |   Prepare   |
	|  / HCL file +---->+  Overrides  +---->+  Validate   |
	+-------------+     +-------------+     +------+------+
	                                               |
	                                        +------+------+
	                                        |   Options   |
	                                        | (read-only) |
	                                        +-------------+

🎯 Purpose:
- Loads an optional config file, format picked by extension
- Overlays command line values
- Fills defaults without touching the caller's value
- Reports every validation problem at once

🔄 Flow:
 1. Load (or LoadOptional) parses a file into a Config
 2. Config.Apply overlays Overrides from flags
 3. Normalize = Prepare + Validate + conversion to Options

⚠️ Validation never stops at the first problem. A ValidationError lists all of
them, in a fixed order, so the CLI can print them together:

	opts, err := config.Normalize(cfg)
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Println("  " + p)
		}
	}
*/
package config
