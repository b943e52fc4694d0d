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

// Package diff holds pixiepatch.Differ implementations. Bsdiff is the only
// one: it shells out to the external bsdiff/bspatch binaries, which need
// real files on disk to operate on, so every call round-trips its inputs
// and outputs through a temporary directory.
package diff

import (
	"os"
	"path/filepath"

	"github.com/dgym/pixiepatch/helpers"
	"github.com/dgym/pixiepatch/log"
	"github.com/dgym/pixiepatch/pixiepatch"
	"github.com/pkg/errors"
)

// Bsdiff produces and applies binary deltas with the external bsdiff and
// bspatch tools. Timeout bounds how long a single bsdiff invocation may
// run, in seconds (0 means no timeout).
type Bsdiff struct {
	Timeout int
}

// Diff implements pixiepatch.Differ.
func (b Bsdiff) Diff(source, target []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pixiepatch-bsdiff-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir for bsdiff")
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	oldPath := filepath.Join(dir, "old")
	newPath := filepath.Join(dir, "new")
	deltaPath := filepath.Join(dir, "delta")

	if err := os.WriteFile(oldPath, source, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage bsdiff input")
	}
	if err := os.WriteFile(newPath, target, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage bsdiff input")
	}

	if err := helpers.RunCommandTimeout(b.Timeout, "bsdiff", oldPath, newPath, deltaPath); err != nil {
		log.Debug(log.Diff, "bsdiff failed, falling back to full file: %s", err)
		return nil, pixiepatch.WrapDiffError(err, "bsdiff failed")
	}

	delta, err := os.ReadFile(deltaPath)
	if err != nil {
		return nil, pixiepatch.WrapDiffError(err, "failed to read bsdiff output")
	}
	return delta, nil
}

// Patch implements pixiepatch.Differ.
func (b Bsdiff) Patch(source, delta []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pixiepatch-bspatch-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir for bspatch")
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	oldPath := filepath.Join(dir, "old")
	deltaPath := filepath.Join(dir, "delta")
	newPath := filepath.Join(dir, "new")

	if err := os.WriteFile(oldPath, source, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage bspatch input")
	}
	if err := os.WriteFile(deltaPath, delta, 0600); err != nil {
		return nil, errors.Wrap(err, "failed to stage bspatch input")
	}

	if err := helpers.RunCommandSilent("bspatch", oldPath, newPath, deltaPath); err != nil {
		return nil, pixiepatch.WrapDiffError(err, "bspatch failed")
	}

	return os.ReadFile(newPath)
}

// Extension implements pixiepatch.Differ.
func (b Bsdiff) Extension() string { return ".bsdiff" }
