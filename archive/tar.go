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

package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Tar mounts the members of a plain (uncompressed) .tar file. TarGz mounts
// the members of a gzip-compressed .tgz/.tar.gz file.
type Tar struct{}

// TarGz wraps Tar with gzip compression on the archive itself.
type TarGz struct{}

// Walk implements pixiepatch.ArchiveHandler.
func (Tar) Walk(hostPath string, fn func(member string, contents []byte, mode *uint32) error) error {
	f, err := os.Open(hostPath)
	if err != nil {
		return errors.Wrap(err, "failed to open tar archive "+hostPath)
	}
	defer func() {
		_ = f.Close()
	}()
	return walkTar(f, fn)
}

// Get implements pixiepatch.ArchiveHandler.
func (Tar) Get(hostPath, member string) ([]byte, error) {
	f, err := os.Open(hostPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tar archive "+hostPath)
	}
	defer func() {
		_ = f.Close()
	}()
	return getTarMember(f, member)
}

// Set implements pixiepatch.ArchiveHandler.
func (Tar) Set(hostPath, member string, contents []byte, mode *uint32) error {
	entries, modes, err := readTarEntries(hostPath, false)
	if err != nil {
		return err
	}
	entries[member] = contents
	if mode != nil {
		modes[member] = mode
	} else {
		delete(modes, member)
	}
	return writeTarEntries(hostPath, entries, modes, false)
}

// Delete implements pixiepatch.ArchiveHandler.
func (Tar) Delete(hostPath, member string) error {
	entries, modes, err := readTarEntries(hostPath, false)
	if err != nil {
		return err
	}
	delete(entries, member)
	delete(modes, member)
	return writeTarEntries(hostPath, entries, modes, false)
}

// Walk implements pixiepatch.ArchiveHandler.
func (TarGz) Walk(hostPath string, fn func(member string, contents []byte, mode *uint32) error) error {
	f, err := os.Open(hostPath)
	if err != nil {
		return errors.Wrap(err, "failed to open tar archive "+hostPath)
	}
	defer func() {
		_ = f.Close()
	}()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "failed to open gzip stream for "+hostPath)
	}
	defer func() {
		_ = gz.Close()
	}()
	return walkTar(gz, fn)
}

// Get implements pixiepatch.ArchiveHandler.
func (TarGz) Get(hostPath, member string) ([]byte, error) {
	f, err := os.Open(hostPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tar archive "+hostPath)
	}
	defer func() {
		_ = f.Close()
	}()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gzip stream for "+hostPath)
	}
	defer func() {
		_ = gz.Close()
	}()
	return getTarMember(gz, member)
}

// Set implements pixiepatch.ArchiveHandler.
func (TarGz) Set(hostPath, member string, contents []byte, mode *uint32) error {
	entries, modes, err := readTarEntries(hostPath, true)
	if err != nil {
		return err
	}
	entries[member] = contents
	if mode != nil {
		modes[member] = mode
	} else {
		delete(modes, member)
	}
	return writeTarEntries(hostPath, entries, modes, true)
}

// Delete implements pixiepatch.ArchiveHandler.
func (TarGz) Delete(hostPath, member string) error {
	entries, modes, err := readTarEntries(hostPath, true)
	if err != nil {
		return err
	}
	delete(entries, member)
	delete(modes, member)
	return writeTarEntries(hostPath, entries, modes, true)
}

func walkTar(r io.Reader, fn func(member string, contents []byte, mode *uint32) error) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to read tar entry")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return errors.Wrap(err, "failed to read tar member "+hdr.Name)
		}
		mode := uint32(hdr.Mode)
		if err := fn(hdr.Name, data, &mode); err != nil {
			return err
		}
	}
}

func getTarMember(r io.Reader, member string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.Errorf("tar member %s not found", member)
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read tar entry")
		}
		if hdr.Name == member {
			return io.ReadAll(tr)
		}
	}
}

func readTarEntries(hostPath string, gzipped bool) (map[string][]byte, map[string]*uint32, error) {
	entries := map[string][]byte{}
	modes := map[string]*uint32{}

	if _, err := os.Stat(hostPath); os.IsNotExist(err) {
		return entries, modes, nil
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open tar archive "+hostPath)
	}
	defer func() {
		_ = f.Close()
	}()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open gzip stream for "+hostPath)
		}
		defer func() {
			_ = gz.Close()
		}()
		r = gz
	}

	err = walkTar(r, func(member string, contents []byte, mode *uint32) error {
		entries[member] = contents
		if mode != nil {
			modes[member] = mode
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entries, modes, nil
}

func writeTarEntries(hostPath string, entries map[string][]byte, modes map[string]*uint32, gzipped bool) (err error) {
	if dir := filepath.Dir(hostPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create directory for "+hostPath)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(hostPath), ".pixiepatch-tar-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file for "+hostPath)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	var w io.Writer = tmp
	var gz *gzip.Writer
	if gzipped {
		gz = gzip.NewWriter(tmp)
		w = gz
	}
	tw := tar.NewWriter(w)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mode := int64(0644)
		if m, ok := modes[name]; ok && m != nil {
			mode = int64(*m)
		}
		hdr := &tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Size:     int64(len(entries[name])),
			Mode:     mode,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			_ = tw.Close()
			return errors.Wrap(err, "failed to write tar header for "+name)
		}
		if _, err := tw.Write(entries[name]); err != nil {
			_ = tw.Close()
			return errors.Wrap(err, "failed to write tar entry "+name)
		}
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "failed to finalize tar archive")
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "failed to finalize gzip stream")
		}
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp tar file")
	}

	if err := os.Rename(tmpName, hostPath); err != nil {
		return errors.Wrap(err, "failed to replace "+hostPath)
	}
	return nil
}
