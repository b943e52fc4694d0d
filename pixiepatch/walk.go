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
	"os"
	"path/filepath"
	"strings"
)

// netpath converts a host-native relative path (using filepath.Separator)
// into the portable, '/'-separated form stored in manifests.
func netpath(p string) string {
	if filepath.Separator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// hostpath converts a portable manifest path into the host-native form
// suitable for filepath.Join and the os package.
func hostpath(p string) string {
	if filepath.Separator == '/' {
		return p
	}
	return strings.ReplaceAll(p, "/", string(filepath.Separator))
}

func modeOf(info os.FileInfo) *uint32 {
	m := uint32(info.Mode().Perm())
	return &m
}

func readHostFile(hostPath string) ([]byte, *uint32, error) {
	info, err := os.Lstat(hostPath)
	if err != nil {
		return nil, nil, WrapIOError(err, "failed to stat "+hostPath)
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return nil, nil, WrapIOError(err, "failed to read "+hostPath)
	}
	return data, modeOf(info), nil
}

func writeHostFile(hostPath string, contents []byte, mode *uint32) error {
	if err := os.MkdirAll(filepath.Dir(hostPath), 0755); err != nil {
		return WrapIOError(err, "failed to create directory for "+hostPath)
	}
	perm := os.FileMode(0644)
	if mode != nil {
		perm = os.FileMode(*mode)
	}
	if err := os.WriteFile(hostPath, contents, perm); err != nil {
		return WrapIOError(err, "failed to write "+hostPath)
	}
	return nil
}

func removeHostFile(hostPath string) error {
	if err := os.Remove(hostPath); err != nil && !os.IsNotExist(err) {
		return WrapIOError(err, "failed to remove "+hostPath)
	}
	return nil
}

// isIgnored reports whether the portable path matches any registered ignore
// pattern.
func (e *Engine) isIgnored(relPortable string) bool {
	for _, re := range e.ignore {
		if re.MatchString(relPortable) {
			return true
		}
	}
	return false
}

// walkSource walks the tree rooted at root, expanding any registered
// archive mount points it encounters, and calls fn once per logical file
// with its portable path (relative to root), its content and its mode.
// Ignore patterns are tested against the post-expansion path, so a pattern
// can exclude a single member inside an archive.
func (e *Engine) walkSource(root string, fn func(relPath string, contents []byte, mode *uint32) error) error {
	return filepath.Walk(root, func(hostPath string, info os.FileInfo, err error) error {
		if err != nil {
			return WrapIOError(err, "failed to walk "+hostPath)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, hostPath)
		if err != nil {
			return WrapIOError(err, "failed to compute relative path for "+hostPath)
		}
		relPortable := netpath(rel)

		if handler := e.archiveHandlerForName(relPortable); handler != nil {
			return handler.Walk(hostPath, func(member string, contents []byte, mmode *uint32) error {
				memberPath := relPortable
				if member != "" {
					memberPath = relPortable + "/" + member
				}
				if e.isIgnored(memberPath) {
					return nil
				}
				return fn(memberPath, contents, mmode)
			})
		}

		if e.isIgnored(relPortable) {
			return nil
		}
		data, mode, err := readHostFile(hostPath)
		if err != nil {
			return err
		}
		return fn(relPortable, data, mode)
	})
}
