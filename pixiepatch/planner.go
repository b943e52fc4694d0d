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
	"github.com/dgym/pixiepatch/internal/stringset"
	"github.com/dgym/pixiepatch/log"
)

// PatchEntry names one file to be reconstructed by applying a chain of
// deltas, oldest first, on top of the caller's current copy.
type PatchEntry struct {
	Name  string
	Chain []string
}

// Plan is the output of Engine.Plan: the set of operations required to
// bring a client tree from its current version up to Manifest.Version.
type Plan struct {
	Delete   []string
	Download []string
	Patch    []PatchEntry
	Size     int64
	Manifest *Manifest
}

// Plan computes the patch plan that takes a tree described by
// clientManifest to targetVersion. Returns (nil, nil) if clientManifest is
// already at targetVersion. Returns an *IOError if targetVersion's manifest
// cannot be fetched through the Engine's Reader.
func (e *Engine) Plan(clientManifest *ClientManifest, targetVersion string) (*Plan, error) {
	if clientManifest.Version == targetVersion {
		return nil, nil
	}

	cache := map[string]*Manifest{}
	getManifest := func(version string) (*Manifest, error) {
		if m, ok := cache[version]; ok {
			return m, nil
		}
		raw, err := e.Reader.Get(version, manifestBlobName+e.Compressor.Extension())
		if err != nil {
			return nil, nil
		}
		m, err := e.decodeManifest(raw)
		if err != nil {
			return nil, err
		}
		cache[version] = m
		return m, nil
	}

	targetManifest, err := getManifest(targetVersion)
	if err != nil {
		return nil, err
	}
	if targetManifest == nil {
		return nil, NewIOError("manifest for version " + targetVersion + " is not available")
	}

	local := stringset.New()
	for name := range clientManifest.Files {
		local.Add(name)
	}
	remote := stringset.New()
	for name := range targetManifest.Files {
		remote.Add(name)
	}

	plan := &Plan{
		Delete:   local.Difference(remote),
		Download: remote.Difference(local),
		Manifest: targetManifest,
	}

	for _, name := range plan.Download {
		plan.Size += targetManifest.Files[name].DLSize
	}

	for _, name := range local.Intersect(remote) {
		localEntry := clientManifest.Files[name]
		remoteEntry := targetManifest.Files[name]
		if localEntry.Hash == remoteEntry.Hash {
			continue
		}

		var chain []string
		var chainSize int64

		if remoteEntry.Delta != nil {
			delta := remoteEntry.Delta
			chain = []string{delta.Version}
			chainSize = delta.Size

			for delta.OldHash != localEntry.Hash {
				var old *Manifest
				if delta.OldVersion != nil {
					old, err = getManifest(*delta.OldVersion)
					if err != nil {
						return nil, err
					}
				}
				if old == nil {
					chain = nil
					break
				}
				entry, ok := old.Files[name]
				if !ok || entry.Delta == nil {
					chain = nil
					break
				}
				delta = entry.Delta
				chain = append([]string{delta.Version}, chain...)
				chainSize += delta.Size

				if chainSize >= remoteEntry.DLSize {
					chain = nil
					break
				}
			}
		}

		if len(chain) > 0 {
			plan.Patch = append(plan.Patch, PatchEntry{Name: name, Chain: chain})
			plan.Size += chainSize
		} else {
			plan.Download = append(plan.Download, name)
			plan.Size += remoteEntry.DLSize
		}
	}

	log.Debug(log.Plan, "plan for %s: %d delete, %d download, %d patch", targetVersion, len(plan.Delete), len(plan.Download), len(plan.Patch))
	return plan, nil
}
