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

package fetch

import "io"

// progressReader wraps r, invoking fn with the number of bytes read on every
// successful Read so callers can report byte-level progress during a
// long-running fetch.
type progressReader struct {
	r  io.Reader
	fn func(n int)
}

func (p progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.fn != nil {
		p.fn(n)
	}
	return n, err
}

// withProgress wraps r in a progressReader when fn is non-nil, otherwise
// returns r unchanged.
func withProgress(r io.Reader, fn func(n int)) io.Reader {
	if fn == nil {
		return r
	}
	return progressReader{r: r, fn: fn}
}
