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

// Compressor turns full file content into a storable payload and back. The
// compress package provides gzip, xz, zstd and external-bzip2
// implementations; IdentityCompressor is the no-op default used by tests and
// by any Engine that was never configured with one.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Extension is appended to stored full-payload blob names, e.g. ".gz".
	Extension() string
}

// Differ produces and applies binary deltas between two versions of a file.
// The diff package's Bsdiff implementation shells out to bsdiff/bspatch;
// IdentityDiffer always reports that it cannot diff, forcing the builder to
// fall back to full-file storage.
type Differ interface {
	// Diff returns a delta that Patch(source, delta) turns back into target.
	// Returns a *DiffError if no delta can be produced for this pair.
	Diff(source, target []byte) ([]byte, error)
	Patch(source, delta []byte) ([]byte, error)
	// Extension is appended to stored delta blob names, e.g. ".bsdiff".
	Extension() string
}

// Signer produces and verifies a detached or enveloping signature over a
// manifest's bytes. IdentitySigner passes data through unsigned, for local
// testing and for distributions that don't require authenticity checks.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	Verify(data []byte) ([]byte, error)
}

// Reader fetches a named blob belonging to a specific published version.
// name is the storage-relative path as recorded by the builder (manifest
// file, full payload, or delta blob); version scopes it to a distribution
// directory, bucket prefix, or URL path segment depending on implementation.
type Reader interface {
	Get(version, name string) ([]byte, error)
}

// FailingReader is the default Reader assigned by New: it has nowhere to
// fetch blobs from, so every call reports an *IOError rather than the
// caller dereferencing a nil interface. Callers that need Plan or Apply to
// do anything useful replace Engine.Reader with fetch.Local, fetch.HTTP,
// fetch.S3 or an equivalent.
type FailingReader struct{}

// Get implements Reader by always failing.
func (FailingReader) Get(version, name string) ([]byte, error) {
	return nil, NewIOError("no reader configured: cannot fetch " + name + "@" + version)
}

// ArchiveHandler lets the builder and applier treat the members of an
// archive file as if they were part of the surrounding directory tree. A
// handler is registered against a file extension (".zip", ".tar"); any path
// component ending in that extension becomes a mount point, and every
// component after it is resolved through the handler instead of the
// filesystem.
type ArchiveHandler interface {
	// Walk calls fn once per member of the archive at hostPath, with the
	// member's portable relative name, its uncompressed content, and its
	// mode if the archive format records one.
	Walk(hostPath string, fn func(member string, contents []byte, mode *uint32) error) error
	Get(hostPath, member string) ([]byte, error)
	Set(hostPath, member string, contents []byte, mode *uint32) error
	Delete(hostPath, member string) error
}

// IdentityCompressor stores file content unmodified.
type IdentityCompressor struct{}

// Compress implements Compressor.
func (IdentityCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress implements Compressor.
func (IdentityCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// Extension implements Compressor.
func (IdentityCompressor) Extension() string { return "" }

// IdentityDiffer never produces a delta, forcing the builder onto the
// full-file path for every entry.
type IdentityDiffer struct{}

// Diff implements Differ.
func (IdentityDiffer) Diff(source, target []byte) ([]byte, error) {
	return nil, NewDiffError("no differ configured")
}

// Patch implements Differ.
func (IdentityDiffer) Patch(source, delta []byte) ([]byte, error) {
	return nil, NewDiffError("no differ configured")
}

// Extension implements Differ.
func (IdentityDiffer) Extension() string { return "" }

// IdentitySigner passes manifest bytes through unchanged.
type IdentitySigner struct{}

// Sign implements Signer.
func (IdentitySigner) Sign(data []byte) ([]byte, error) { return data, nil }

// Verify implements Signer.
func (IdentitySigner) Verify(data []byte) ([]byte, error) { return data, nil }

// DummyHandler is the fallback ArchiveHandler used internally for plain
// files: it treats the "archive" as a single member named after the file
// itself, with no further nesting. It is not registered by extension; the
// handler-resolution path in handler.go falls back to it directly.
type DummyHandler struct{}

// Walk implements ArchiveHandler by reading hostPath as a single member.
func (DummyHandler) Walk(hostPath string, fn func(member string, contents []byte, mode *uint32) error) error {
	data, mode, err := readHostFile(hostPath)
	if err != nil {
		return err
	}
	return fn("", data, mode)
}

// Get implements ArchiveHandler.
func (DummyHandler) Get(hostPath, member string) ([]byte, error) {
	data, _, err := readHostFile(hostPath)
	return data, err
}

// Set implements ArchiveHandler.
func (DummyHandler) Set(hostPath, member string, contents []byte, mode *uint32) error {
	return writeHostFile(hostPath, contents, mode)
}

// Delete implements ArchiveHandler.
func (DummyHandler) Delete(hostPath, member string) error {
	return removeHostFile(hostPath)
}
