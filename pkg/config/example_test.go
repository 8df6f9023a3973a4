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

package config_test

import (
	"fmt"

	"github.com/walteh/atomic-s3/pkg/config"
	"gitlab.com/tozd/go/errors"
)

func ExampleNormalize() {
	path := "dist"
	cfg := &config.Config{Path: &path}
	cfg.Apply(config.Overrides{Bucket: "my-site"})

	_, err := config.Normalize(cfg)
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Println(p)
		}
	}

	cfg.Apply(config.Overrides{Region: "eu-west-1"})
	opts, err := config.Normalize(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(opts.Bucket, opts.Region, opts.EntryPoints, opts.MaxAge)

	// Output:
	// region is not defined (should be defined via command line option --region or s3options.region)
	// my-site eu-west-1 [**/*.html] 3600
}
