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

import (
	"io"
	"net/http"

	"github.com/dgym/pixiepatch/log"
	"github.com/dgym/pixiepatch/pixiepatch"
)

// HTTP reads distribution blobs from a remote server, joining BaseURL,
// version and name with "/" to form each request's URL.
type HTTP struct {
	BaseURL string
	Client  *http.Client
	// Progress, if set, is invoked once per chunk read from the response
	// body with the number of bytes read in that chunk.
	Progress func(n int)
}

// Get implements pixiepatch.Reader.
func (h HTTP) Get(version, name string) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := h.BaseURL + "/" + version + "/" + name
	log.Verbose(log.Fetch, "downloading %s", url)

	res, err := client.Get(url)
	if err != nil {
		return nil, pixiepatch.WrapIOError(err, "failed to fetch "+url)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return nil, pixiepatch.NewIOError("failed to fetch " + url + ": " + res.Status)
	}

	data, err := io.ReadAll(withProgress(res.Body, h.Progress))
	if err != nil {
		return nil, pixiepatch.WrapIOError(err, "failed to read response body for "+url)
	}
	return data, nil
}
