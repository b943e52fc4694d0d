// Copyright © 2020 Intel Corporation
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

// Package fetch holds pixiepatch.Reader implementations: a plain local
// directory tree, an HTTP(S) endpoint, and an S3 bucket.
package fetch

import (
	"os"
	"path/filepath"

	"github.com/dgym/pixiepatch/pixiepatch"
)

// Local reads distribution blobs from a local directory tree laid out as
// "<Root>/<version>/<name>", the same layout MakeDistribution writes.
type Local struct {
	Root string
}

// Get implements pixiepatch.Reader.
func (l Local) Get(version, name string) ([]byte, error) {
	path := filepath.Join(l.Root, version, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pixiepatch.WrapIOError(err, "failed to read "+path)
	}
	return data, nil
}
