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
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Zstd compresses and decompresses using klauspost/compress's zstd
// implementation. It is the fastest of the bundled compressors at a given
// compression ratio and the best fit for distributions built and applied
// often (e.g. CI artifact syncing).
type Zstd struct {
	Level zstd.EncoderLevel
}

// Compress implements pixiepatch.Compressor.
func (z Zstd) Compress(data []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd encoder")
	}
	defer func() {
		_ = enc.Close()
	}()
	return enc.EncodeAll(data, nil), nil
}

// Decompress implements pixiepatch.Compressor.
func (z Zstd) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd decoder")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to zstd decompress")
	}
	return out, nil
}

// Extension implements pixiepatch.Compressor.
func (z Zstd) Extension() string { return ".zst" }
