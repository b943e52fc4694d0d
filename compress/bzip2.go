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

package compress

import (
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/dgym/pixiepatch/helpers"
	"github.com/pkg/errors"
)

// Bzip2 decompresses with the standard library (which only implements the
// reader side of bzip2) and compresses by shelling out to an external
// bzip2 binary.
type Bzip2 struct {
	// Binary names the external compressor to invoke. Defaults to "bzip2".
	Binary string
}

// Compress implements pixiepatch.Compressor.
func (b Bzip2) Compress(data []byte) ([]byte, error) {
	binary := b.Binary
	if binary == "" {
		binary = "bzip2"
	}
	out, err := helpers.RunCommandOutputInput(bytes.NewReader(data), binary, "-c")
	if err != nil {
		return nil, errors.Wrap(err, "failed to run external bzip2 compressor")
	}
	return out.Bytes(), nil
}

// Decompress implements pixiepatch.Compressor.
func (b Bzip2) Decompress(data []byte) ([]byte, error) {
	r := bzip2.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bzip2 decompress")
	}
	return out, nil
}

// Extension implements pixiepatch.Compressor.
func (b Bzip2) Extension() string { return ".bz2" }
