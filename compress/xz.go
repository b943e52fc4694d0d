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
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// XZ compresses and decompresses using the pure-Go ulikunitz/xz
// implementation. Manifests for large distributions tend to compress
// noticeably better under xz than gzip; builders can opt into it without
// depending on an external xz binary being present.
type XZ struct{}

// Compress implements pixiepatch.Compressor.
func (XZ) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create xz writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to xz compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize xz stream")
	}
	return buf.Bytes(), nil
}

// Decompress implements pixiepatch.Compressor.
func (XZ) Decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open xz stream")
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to xz decompress")
	}
	return out, nil
}

// Extension implements pixiepatch.Compressor.
func (XZ) Extension() string { return ".xz" }
