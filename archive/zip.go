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

// Package archive holds pixiepatch.ArchiveHandler implementations that let
// the builder and applier treat members of an archive file as part of the
// surrounding tree.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Zip mounts the members of a .zip file. Go's archive/zip package has no
// in-place append or delete, so Set and Delete both rewrite the archive in
// full into a temp file and rename it over the original; Walk and Get read
// directly.
type Zip struct{}

// Walk implements pixiepatch.ArchiveHandler.
func (Zip) Walk(hostPath string, fn func(member string, contents []byte, mode *uint32) error) error {
	r, err := zip.OpenReader(hostPath)
	if err != nil {
		return errors.Wrap(err, "failed to open zip archive "+hostPath)
	}
	defer func() {
		_ = r.Close()
	}()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errors.Wrap(err, "failed to open zip member "+f.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return errors.Wrap(err, "failed to read zip member "+f.Name)
		}
		if err := fn(f.Name, data, zipMode(f)); err != nil {
			return err
		}
	}
	return nil
}

// Get implements pixiepatch.ArchiveHandler.
func (Zip) Get(hostPath, member string) ([]byte, error) {
	r, err := zip.OpenReader(hostPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open zip archive "+hostPath)
	}
	defer func() {
		_ = r.Close()
	}()

	for _, f := range r.File {
		if f.Name == member {
			rc, err := f.Open()
			if err != nil {
				return nil, errors.Wrap(err, "failed to open zip member "+member)
			}
			defer func() {
				_ = rc.Close()
			}()
			return io.ReadAll(rc)
		}
	}
	return nil, errors.Errorf("zip member %s not found in %s", member, hostPath)
}

// Set implements pixiepatch.ArchiveHandler.
func (Zip) Set(hostPath, member string, contents []byte, mode *uint32) error {
	entries, modes, err := readZipEntries(hostPath)
	if err != nil {
		return err
	}
	entries[member] = contents
	if mode != nil {
		modes[member] = mode
	} else {
		delete(modes, member)
	}
	return writeZipEntries(hostPath, entries, modes)
}

// Delete implements pixiepatch.ArchiveHandler.
func (Zip) Delete(hostPath, member string) error {
	entries, modes, err := readZipEntries(hostPath)
	if err != nil {
		return err
	}
	delete(entries, member)
	delete(modes, member)
	return writeZipEntries(hostPath, entries, modes)
}

func zipMode(f *zip.File) *uint32 {
	m := uint32(f.Mode().Perm())
	if m == 0 {
		return nil
	}
	return &m
}

func readZipEntries(hostPath string) (map[string][]byte, map[string]*uint32, error) {
	contents := map[string][]byte{}
	modes := map[string]*uint32{}

	if _, err := os.Stat(hostPath); os.IsNotExist(err) {
		return contents, modes, nil
	}

	r, err := zip.OpenReader(hostPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open zip archive "+hostPath)
	}
	defer func() {
		_ = r.Close()
	}()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open zip member "+f.Name)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to read zip member "+f.Name)
		}
		contents[f.Name] = data
		if m := zipMode(f); m != nil {
			modes[f.Name] = m
		}
	}
	return contents, modes, nil
}

// writeZipEntries rewrites hostPath from scratch with the given member set.
// It always writes to a temp file first and removes that temp file on
// every exit path (including early returns), so a failed rewrite never
// leaves a stray file behind or a half-written archive in place.
func writeZipEntries(hostPath string, entries map[string][]byte, modes map[string]*uint32) (err error) {
	if dir := filepath.Dir(hostPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create directory for "+hostPath)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(hostPath), ".pixiepatch-zip-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file for "+hostPath)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	w := zip.NewWriter(tmp)
	for _, name := range names {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if mode, ok := modes[name]; ok && mode != nil {
			header.SetMode(os.FileMode(*mode))
		}
		fw, err := w.CreateHeader(header)
		if err != nil {
			_ = w.Close()
			_ = tmp.Close()
			return errors.Wrap(err, "failed to add zip entry "+name)
		}
		if _, err := fw.Write(entries[name]); err != nil {
			_ = w.Close()
			_ = tmp.Close()
			return errors.Wrap(err, "failed to write zip entry "+name)
		}
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to finalize zip archive")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp zip file")
	}

	if err := os.Rename(tmpName, hostPath); err != nil {
		return errors.Wrap(err, "failed to replace "+hostPath)
	}
	return nil
}
