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

package pixiepatch

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Engine ties together the pluggable adapters and ignore/archive
// registrations that govern one distribution's build, plan and apply
// behavior. The zero value is not usable; construct with New.
type Engine struct {
	Compressor Compressor
	Differ     Differ
	Signer     Signer
	Reader     Reader

	archiveHandlers map[string]ArchiveHandler // extension ("." included) -> handler
	ignore          []*regexp.Regexp
}

// New returns an Engine configured with identity adapters and a Reader that
// fails every fetch. Callers replace Compressor, Differ, Signer and Reader
// directly, call RegisterArchiveHandler for each archive extension they
// support, and RegisterIgnorePattern for each path pattern to exclude from
// distributions.
func New() *Engine {
	return &Engine{
		Compressor:      IdentityCompressor{},
		Differ:          IdentityDiffer{},
		Signer:          IdentitySigner{},
		Reader:          FailingReader{},
		archiveHandlers: map[string]ArchiveHandler{},
	}
}

// RegisterArchiveHandler associates ext (e.g. ".zip") with a handler. Any
// path component ending in ext becomes a mount point for that handler.
func (e *Engine) RegisterArchiveHandler(ext string, handler ArchiveHandler) {
	e.archiveHandlers[ext] = handler
}

// RegisterIgnorePattern compiles pattern as a regular expression matched
// against portable relative paths, and adds it to the ignore list. Matching
// is prefix-anchored (like Python's re.match, which the original engine used
// for this): the pattern must match starting at the beginning of the path,
// but need not consume the whole thing. Returns an error if pattern does not
// compile.
func (e *Engine) RegisterIgnorePattern(pattern string) error {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return errors.Wrapf(err, "invalid ignore pattern %q", pattern)
	}
	e.ignore = append(e.ignore, re)
	return nil
}

// archiveHandlerForName returns the handler whose registered extension is a
// suffix of name, or nil. A suffix check rather than a last-extension lookup
// so that multi-part extensions like ".tar.gz" can be registered.
func (e *Engine) archiveHandlerForName(name string) ArchiveHandler {
	for ext, h := range e.archiveHandlers {
		if strings.HasSuffix(name, ext) {
			return h
		}
	}
	return nil
}

// resolve splits a manifest-relative portable path into the filesystem path
// of the nearest archive mount point (scanning components left to right)
// and the member name within that archive, or, if no component matches a
// registered extension, the plain host path of the file itself with an
// empty member name.
func (e *Engine) resolve(root, name string) (hostPath, member string, handler ArchiveHandler) {
	parts := strings.Split(name, "/")
	for i, part := range parts {
		if h := e.archiveHandlerForName(part); h != nil {
			hostPath = filepath.Join(root, hostpath(strings.Join(parts[:i+1], "/")))
			member = strings.Join(parts[i+1:], "/")
			return hostPath, member, h
		}
	}
	return filepath.Join(root, hostpath(name)), "", DummyHandler{}
}

// getFile reads the current content of a manifest path rooted at root,
// resolving through any archive mount point along the way.
func (e *Engine) getFile(root, name string) ([]byte, error) {
	hostPath, member, handler := e.resolve(root, name)
	return handler.Get(hostPath, member)
}

// setFile writes contents for a manifest path rooted at root, resolving
// through any archive mount point along the way.
func (e *Engine) setFile(root, name string, contents []byte, mode *uint32) error {
	hostPath, member, handler := e.resolve(root, name)
	return handler.Set(hostPath, member, contents, mode)
}

// deleteFile removes a manifest path rooted at root, resolving through any
// archive mount point along the way.
func (e *Engine) deleteFile(root, name string) error {
	hostPath, member, handler := e.resolve(root, name)
	return handler.Delete(hostPath, member)
}
