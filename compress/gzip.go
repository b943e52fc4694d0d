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

// Package compress holds pixiepatch.Compressor implementations: gzip and
// bzip2 from the standard library, xz and zstd from the wider Go ecosystem,
// and the external bzip2 encoder for the one direction the standard library
// doesn't cover.
package compress

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"
)

// Gzip compresses and decompresses using the standard library's gzip
// implementation, at the given compression level (gzip.DefaultCompression
// if zero).
type Gzip struct {
	Level int
}

// Compress implements pixiepatch.Compressor.
func (g Gzip) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gzip writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to gzip compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize gzip stream")
	}
	return buf.Bytes(), nil
}

// Decompress implements pixiepatch.Compressor.
func (g Gzip) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gzip stream")
	}
	defer func() {
		_ = r.Close()
	}()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to gzip decompress")
	}
	return out, nil
}

// Extension implements pixiepatch.Compressor.
func (g Gzip) Extension() string { return ".gz" }
