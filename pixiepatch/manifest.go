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

// Package pixiepatch implements a content-addressed distribution builder,
// patch planner and patch applier. A Manifest describes one published
// version of a tree: every file's hash, its compressed payload size, and
// an optional chain of binary deltas back to older versions. Manifests are
// produced by Engine.MakeDistribution, consumed by Engine.Plan and
// Engine.Apply, and transported as signed, compressed JSON documents.
package pixiepatch

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Delta describes a binary delta that, applied to the file content whose
// hash is OldHash, reproduces this version. Version is the distribution the
// delta was built in. OldVersion is the Version of the delta recorded for
// the OldHash content in the previous manifest, which is where the chain
// search looks next; it is nil when that previous entry had no delta.
type Delta struct {
	OldHash    string  `json:"old_hash"`
	OldVersion *string `json:"old_version"`
	Size       int64   `json:"size"`
	Version    string  `json:"version"`
}

// FileEntry is one file's record within a Manifest.
type FileEntry struct {
	// Delta, when non-nil, is the most recent delta recorded for this
	// file. Chain search walks older manifests to extend it.
	Delta *Delta `json:"delta"`
	// DLSize is the size in bytes of the compressed full payload for
	// this file, used by the planner to compare full-fetch cost against
	// delta-chain cost.
	DLSize int64 `json:"dlsize"`
	// Hash is the SHA-256 of the file's uncompressed content, hex encoded.
	Hash string `json:"hash"`
	// Mode holds the POSIX permission bits of the source file, or nil when
	// the source (e.g. an archive member without recorded permissions)
	// provides none.
	Mode *uint32 `json:"mode,omitempty"`
}

// Manifest is the complete, signed description of one published version of
// a tree. Files is keyed by portable ('/'-separated) relative path.
type Manifest struct {
	Files   map[string]*FileEntry `json:"files"`
	Version string                `json:"version"`
}

// NewManifest returns an empty manifest for the given version string.
func NewManifest(version string) *Manifest {
	return &Manifest{
		Version: version,
		Files:   map[string]*FileEntry{},
	}
}

// ClientFileEntry is the slimmed-down per-file record the planner is given
// for the caller's current tree: only the content hash is needed to decide
// whether a file is missing, stale or already current.
type ClientFileEntry struct {
	Hash string `json:"hash"`
}

// ClientManifest describes the tree the caller already has on disk. It is
// produced by Engine.CreateClientManifest (by hashing a local directory) or
// hand built by a caller that tracks hashes itself, and is the required
// input to Engine.Plan.
type ClientManifest struct {
	Files   map[string]ClientFileEntry `json:"files"`
	Version string                     `json:"version"`
}

// NewClientManifest returns an empty client manifest for the given version.
func NewClientManifest(version string) *ClientManifest {
	return &ClientManifest{
		Version: version,
		Files:   map[string]ClientFileEntry{},
	}
}

// MarshalManifest serializes m as canonical JSON: keys sorted (both the
// file-path map and each entry's fields, by virtue of struct field order and
// Go's map-key sorting), four-space indentation, trailing newline. This is
// the representation that gets signed and compressed.
func MarshalManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal manifest")
	}
	return append(data, '\n'), nil
}

// ParseManifest parses a manifest previously produced by MarshalManifest (or
// an equivalent canonical encoding). Key order in data is irrelevant.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, WrapIOError(err, "failed to parse manifest")
	}
	if m.Files == nil {
		m.Files = map[string]*FileEntry{}
	}
	return &m, nil
}

// MarshalClientManifest serializes a client manifest as indented JSON.
func MarshalClientManifest(m *ClientManifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal client manifest")
	}
	return append(data, '\n'), nil
}

// ParseClientManifest parses a client manifest previously produced by
// MarshalClientManifest.
func ParseClientManifest(data []byte) (*ClientManifest, error) {
	var m ClientManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, WrapIOError(err, "failed to parse client manifest")
	}
	if m.Files == nil {
		m.Files = map[string]ClientFileEntry{}
	}
	return &m, nil
}
