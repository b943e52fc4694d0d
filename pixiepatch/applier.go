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

import "github.com/dgym/pixiepatch/log"

// Apply carries out plan against the tree rooted at root: deletions first,
// then full downloads, then delta patches. Every downloaded or patched file
// is verified against plan.Manifest's recorded hash before being written;
// the first verification failure halts the whole operation, leaving
// whatever was already applied in place.
func (e *Engine) Apply(root string, plan *Plan) error {
	version := plan.Manifest.Version

	for _, name := range plan.Delete {
		if err := e.deleteFile(root, name); err != nil {
			return err
		}
		log.Debug(log.Apply, "deleted %s", name)
	}

	for _, name := range plan.Download {
		entry := plan.Manifest.Files[name]
		raw, err := e.Reader.Get(version, name+e.Compressor.Extension())
		if err != nil {
			return WrapIOError(err, "failed to fetch "+name)
		}
		contents, err := e.Compressor.Decompress(raw)
		if err != nil {
			return WrapIOError(err, "failed to decompress "+name)
		}
		if hashOf(contents) != entry.Hash {
			return NewVerificationError("hash mismatch downloading " + name)
		}
		if err := e.setFile(root, name, contents, entry.Mode); err != nil {
			return err
		}
		log.Debug(log.Apply, "downloaded %s", name)
	}

	for _, p := range plan.Patch {
		entry := plan.Manifest.Files[p.Name]
		contents, err := e.getFile(root, p.Name)
		if err != nil {
			return err
		}

		for _, v := range p.Chain {
			raw, err := e.Reader.Get(v, p.Name+e.Differ.Extension())
			if err != nil {
				return WrapIOError(err, "failed to fetch delta for "+p.Name)
			}
			patchBytes, err := e.Compressor.Decompress(raw)
			if err != nil {
				return WrapIOError(err, "failed to decompress delta for "+p.Name)
			}
			contents, err = e.Differ.Patch(contents, patchBytes)
			if err != nil {
				return WrapDiffError(err, "failed to apply delta for "+p.Name)
			}
		}

		if hashOf(contents) != entry.Hash {
			return NewVerificationError("hash mismatch patching " + p.Name)
		}
		if err := e.setFile(root, p.Name, contents, entry.Mode); err != nil {
			return err
		}
		log.Debug(log.Apply, "patched %s", p.Name)
	}

	log.Info(log.Apply, "applied plan for version %s", version)
	return nil
}
