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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgym/pixiepatch/log"
	"github.com/dgym/pixiepatch/pixiepatch"
)

var applyFlags = struct {
	clientManifest string
	root           string
}{}

var applyCmd = &cobra.Command{
	Use:   "apply VERSION",
	Short: "Plan and apply the patch to bring a local tree to VERSION",
	Long: `apply computes the same plan "pixiepatch plan" would and carries
it out directly against --root: deleting files no longer present, downloading
new or undiffable files, and patching files for which a usable delta chain
exists. Every downloaded or patched file's hash is checked against the
target manifest; the first verification failure stops the operation in
place, leaving everything applied up to that point on disk.`,
	Args: cobra.ExactArgs(1),
	Run:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyFlags.clientManifest, "client-manifest", "", "path to a client manifest (required)")
	applyCmd.Flags().StringVar(&applyFlags.root, "root", "", "tree to apply the patch to (default: the configured source directory)")
	_ = applyCmd.MarkFlagRequired("client-manifest")
	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	targetVersion := args[0]

	c, err := loadConfig()
	if err != nil {
		fail(err)
	}

	e, err := newEngine(c)
	if err != nil {
		fail(err)
	}
	e.Reader, err = readerFor(c)
	if err != nil {
		fail(err)
	}

	root := applyFlags.root
	if root == "" {
		root = c.Distribution.SourceDir
	}

	data, err := os.ReadFile(applyFlags.clientManifest)
	if err != nil {
		fail(err)
	}
	clientManifest, err := pixiepatch.ParseClientManifest(data)
	if err != nil {
		fail(err)
	}

	plan, err := e.Plan(clientManifest, targetVersion)
	if err != nil {
		fail(err)
	}
	if plan == nil {
		fmt.Println("already up to date")
		return
	}

	log.Info(log.Apply, "applying plan: %d delete, %d download, %d patch, %d bytes",
		len(plan.Delete), len(plan.Download), len(plan.Patch), plan.Size)

	if err := e.Apply(root, plan); err != nil {
		fail(err)
	}
}
