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
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/dgym/pixiepatch/helpers"
	"github.com/dgym/pixiepatch/log"
)

const manifestBlobName = "manifest"

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func ensureDir(name string) error {
	if name == "" {
		return nil
	}
	return os.MkdirAll(name, 0755)
}

// decodeManifest reverses encodeManifest: decompress, verify the signature,
// then parse the canonical JSON body.
func (e *Engine) decodeManifest(data []byte) (*Manifest, error) {
	decompressed, err := e.Compressor.Decompress(data)
	if err != nil {
		return nil, WrapIOError(err, "failed to decompress manifest")
	}
	verified, err := e.Signer.Verify(decompressed)
	if err != nil {
		return nil, WrapVerificationError(err, "manifest signature verification failed")
	}
	return ParseManifest(verified)
}

// encodeManifest serializes, signs then compresses a manifest, producing
// the bytes written to disk (or fetched via a Reader).
func (e *Engine) encodeManifest(m *Manifest) ([]byte, error) {
	data, err := MarshalManifest(m)
	if err != nil {
		return nil, err
	}
	signed, err := e.Signer.Sign(data)
	if err != nil {
		return nil, WrapVerificationError(err, "failed to sign manifest")
	}
	return e.Compressor.Compress(signed)
}

// ReadManifestFile reads and decodes the manifest stored at targetDir.
func (e *Engine) ReadManifestFile(targetDir string) (*Manifest, error) {
	name := filepath.Join(targetDir, manifestBlobName+e.Compressor.Extension())
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, WrapIOError(err, "failed to read "+name)
	}
	return e.decodeManifest(data)
}

// MakeDistribution builds version's manifest and blob tree in targetDir from
// the contents of sourceDir. When previousTargetDir is non-empty, it is
// read to discover which files are unchanged (hardlinked instead of
// recompressed) and to attempt binary deltas for files that changed.
func (e *Engine) MakeDistribution(version, sourceDir, targetDir, previousTargetDir string) error {
	var previousManifest *Manifest
	if previousTargetDir != "" {
		m, err := e.ReadManifestFile(previousTargetDir)
		if err != nil {
			return err
		}
		previousManifest = m
	}

	manifest := NewManifest(version)

	err := e.walkSource(sourceDir, func(relPath string, contents []byte, mode *uint32) error {
		hash := hashOf(contents)
		destName := filepath.Join(targetDir, hostpath(relPath)) + e.Compressor.Extension()
		deltaName := filepath.Join(targetDir, hostpath(relPath)) + e.Differ.Extension()
		if err := ensureDir(filepath.Dir(destName)); err != nil {
			return err
		}

		var (
			linked        bool
			delta         *Delta
			compressed    []byte
			compressedLen int64
		)

		if previousManifest != nil {
			previousName := filepath.Join(previousTargetDir, hostpath(relPath)) + e.Compressor.Extension()
			last, existed := previousManifest.Files[relPath]
			switch {
			case existed && last.Hash == hash:
				if err := os.Remove(destName); err != nil && !os.IsNotExist(err) {
					return WrapIOError(err, "failed to remove "+destName)
				}
				if err := hardlink(previousName, destName); err != nil {
					return err
				}
				linked = true
				info, err := os.Stat(destName)
				if err != nil {
					return WrapIOError(err, "failed to stat "+destName)
				}
				compressedLen = info.Size()
				delta = last.Delta
			case existed:
				previousRaw, err := os.ReadFile(previousName)
				if err != nil {
					return WrapIOError(err, "failed to read "+previousName)
				}
				previousContents, err := e.Compressor.Decompress(previousRaw)
				if err != nil {
					return WrapIOError(err, "failed to decompress "+previousName)
				}

				diff, diffErr := e.Differ.Diff(previousContents, contents)
				if diffErr == nil {
					deltaContents, cerr := e.Compressor.Compress(diff)
					if cerr != nil {
						return WrapIOError(cerr, "failed to compress delta for "+relPath)
					}
					full, cerr := e.Compressor.Compress(contents)
					if cerr != nil {
						return WrapIOError(cerr, "failed to compress "+relPath)
					}
					compressed = full
					if int64(len(deltaContents)) < int64(len(full)) {
						if err := os.WriteFile(deltaName, deltaContents, 0644); err != nil {
							return WrapIOError(err, "failed to write "+deltaName)
						}
						var oldVersion *string
						if last.Delta != nil {
							v := last.Delta.Version
							oldVersion = &v
						}
						delta = &Delta{
							Version:    version,
							Size:       int64(len(deltaContents)),
							OldHash:    last.Hash,
							OldVersion: oldVersion,
						}
					}
				} else if !IsDiffError(diffErr) {
					return diffErr
				}
				log.Debug(log.Build, "computed delta for %s (used=%v)", relPath, delta != nil)
			}
		}

		if !linked {
			if compressed == nil {
				var cerr error
				compressed, cerr = e.Compressor.Compress(contents)
				if cerr != nil {
					return WrapIOError(cerr, "failed to compress "+relPath)
				}
			}
			compressedLen = int64(len(compressed))
			if err := os.WriteFile(destName, compressed, 0644); err != nil {
				return WrapIOError(err, "failed to write "+destName)
			}
			if delta != nil && delta.Size >= compressedLen {
				delta = nil
			}
		}

		manifest.Files[relPath] = &FileEntry{
			Hash:   hash,
			DLSize: compressedLen,
			Delta:  delta,
			Mode:   mode,
		}
		return nil
	})
	if err != nil {
		return err
	}

	encoded, err := e.encodeManifest(manifest)
	if err != nil {
		return err
	}
	manifestName := filepath.Join(targetDir, manifestBlobName+e.Compressor.Extension())
	if err := ensureDir(targetDir); err != nil {
		return err
	}
	if err := os.WriteFile(manifestName, encoded, 0644); err != nil {
		return WrapIOError(err, "failed to write "+manifestName)
	}

	versionName := filepath.Join(targetDir, "version")
	if err := os.WriteFile(versionName, []byte(version+"\n"), 0644); err != nil {
		return WrapIOError(err, "failed to write "+versionName)
	}

	log.Info(log.Build, "built distribution %s with %d files", version, len(manifest.Files))
	return nil
}

// CreateClientManifest hashes the contents of sourceDir and returns a
// ClientManifest suitable as input to Plan. version should identify
// whatever version of the tree is currently on disk (the caller's own
// bookkeeping, not necessarily a published distribution version).
func (e *Engine) CreateClientManifest(version, sourceDir string) (*ClientManifest, error) {
	manifest := NewClientManifest(version)
	err := e.walkSource(sourceDir, func(relPath string, contents []byte, mode *uint32) error {
		manifest.Files[relPath] = ClientFileEntry{Hash: hashOf(contents)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// hardlink links dest to src, falling back to a byte-for-byte copy (with
// source permissions preserved) when the filesystem doesn't support hard
// links across the two paths, e.g. because they live on different devices.
func hardlink(src, dest string) error {
	if err := os.Link(src, dest); err != nil {
		log.Debug(log.Build, "hardlink %s -> %s failed (%s), falling back to copy", src, dest, err)
		if cerr := helpers.CopyFileWithOptions(dest, src, true, false, true); cerr != nil {
			return WrapIOError(cerr, "failed to link or copy "+src+" to "+dest)
		}
	}
	return nil
}
