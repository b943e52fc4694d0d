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

package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build VERSION",
	Short: "Build a distribution from the configured source directory",
	Long: `Build reads the configured source directory, computes a manifest for
VERSION, and writes the manifest and compressed (and, where cheaper, delta)
blobs into the configured target directory.

If Distribution.PREVIOUS_VERSION is set in the config, the previous version's
manifest is consulted: unchanged files are hardlinked instead of recompressed,
and changed files are diffed against their previous contents so a delta blob
can be offered alongside the full payload.`,
	Args: cobra.ExactArgs(1),
	Run:  runBuild,
}

func init() {
	RootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) {
	version := args[0]

	c, err := loadConfig()
	if err != nil {
		fail(err)
	}

	e, err := newEngine(c)
	if err != nil {
		fail(err)
	}

	previous := c.Distribution.PreviousVersion
	previousDir := ""
	if previous != "" {
		previousDir = filepath.Join(c.Distribution.TargetDir, previous)
	}
	targetDir := filepath.Join(c.Distribution.TargetDir, version)

	if err := e.MakeDistribution(version, c.Distribution.SourceDir, targetDir, previousDir); err != nil {
		fail(err)
	}
}
