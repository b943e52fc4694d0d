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

package cmd

import (
	"github.com/pkg/errors"

	"github.com/dgym/pixiepatch/archive"
	"github.com/dgym/pixiepatch/compress"
	"github.com/dgym/pixiepatch/config"
	"github.com/dgym/pixiepatch/diff"
	"github.com/dgym/pixiepatch/fetch"
	"github.com/dgym/pixiepatch/pixiepatch"
	"github.com/dgym/pixiepatch/sign"
)

// archiveHandlers maps the names accepted by Distribution.ARCHIVE_EXTENSIONS
// to the handler and extension (with leading dot) it registers.
var archiveHandlers = map[string]struct {
	ext     string
	handler pixiepatch.ArchiveHandler
}{
	"zip": {".zip", archive.Zip{}},
	"tar": {".tar", archive.Tar{}},
	"tgz": {".tgz", archive.TarGz{}},
}

// newEngine builds an Engine from a parsed Config: it selects the
// Compressor, Differ and Signer named by the config, registers the archive
// handlers named by Distribution.ARCHIVE_EXTENSIONS (mounting is still
// opt-in per distribution, driven by whether a path happens to use one of
// these extensions), registers each of Distribution.IGNORE_PATTERNS, and
// leaves Reader at the failing default New assigns, for callers that only
// need to build.
func newEngine(c *config.Config) (*pixiepatch.Engine, error) {
	e := pixiepatch.New()

	comp, err := compressorFor(c)
	if err != nil {
		return nil, err
	}
	e.Compressor = comp

	differ, err := differFor(c)
	if err != nil {
		return nil, err
	}
	e.Differ = differ

	if c.Sign.Cert != "" {
		e.Signer = sign.OpenSSL{Cert: c.Sign.Cert, Key: c.Sign.Key, CAFile: c.Sign.CAFile}
	}

	for _, name := range c.Distribution.ArchiveExtensions {
		h, ok := archiveHandlers[name]
		if !ok {
			return nil, errors.Errorf("unknown archive extension %q", name)
		}
		e.RegisterArchiveHandler(h.ext, h.handler)
	}

	for _, pattern := range c.Distribution.IgnorePatterns {
		if err := e.RegisterIgnorePattern(pattern); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func compressorFor(c *config.Config) (pixiepatch.Compressor, error) {
	switch c.Compress.Algorithm {
	case "", "identity":
		return pixiepatch.IdentityCompressor{}, nil
	case "gzip":
		return compress.Gzip{}, nil
	case "xz":
		return compress.XZ{}, nil
	case "zstd":
		return compress.Zstd{}, nil
	case "bzip2":
		return compress.Bzip2{}, nil
	default:
		return nil, errors.Errorf("unknown compression algorithm %q", c.Compress.Algorithm)
	}
}

func differFor(c *config.Config) (pixiepatch.Differ, error) {
	switch c.Diff.Algorithm {
	case "", "identity":
		return pixiepatch.IdentityDiffer{}, nil
	case "bsdiff":
		return diff.Bsdiff{Timeout: c.Diff.Timeout}, nil
	default:
		return nil, errors.Errorf("unknown diff algorithm %q", c.Diff.Algorithm)
	}
}

// readerFor builds the Reader a plan or apply operation fetches blobs
// through, chosen by whichever of the reader config fields is set.
func readerFor(c *config.Config) (pixiepatch.Reader, error) {
	switch {
	case c.Reader.BucketURL != "":
		return &fetch.S3{BucketURL: c.Reader.BucketURL}, nil
	case c.Reader.BaseURL != "":
		return fetch.HTTP{BaseURL: c.Reader.BaseURL}, nil
	case c.Reader.Root != "":
		return fetch.Local{Root: c.Reader.Root}, nil
	default:
		return nil, errors.New("no reader configured: set Reader.ROOT, Reader.BASE_URL or Reader.BUCKET_URL")
	}
}

func loadConfig() (*config.Config, error) {
	var c config.Config
	if err := c.LoadDefaults(); err != nil {
		return nil, err
	}
	if err := c.LoadConfig(configFile); err != nil {
		return nil, err
	}
	return &c, nil
}
