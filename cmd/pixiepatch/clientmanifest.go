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
	"os"

	"github.com/spf13/cobra"

	"github.com/dgym/pixiepatch/pixiepatch"
)

var clientManifestFlags = struct {
	root   string
	output string
}{}

var clientManifestCmd = &cobra.Command{
	Use:   "client-manifest VERSION",
	Short: "Hash a local tree and write a client manifest for it",
	Long: `client-manifest walks --root (default: the configured source
directory) and writes a manifest recording VERSION and the SHA-256 of each
file's content. The result is the required input to "pixiepatch plan".`,
	Args: cobra.ExactArgs(1),
	Run:  runClientManifest,
}

func init() {
	clientManifestCmd.Flags().StringVar(&clientManifestFlags.root, "root", "", "directory to hash (default: the configured source directory)")
	clientManifestCmd.Flags().StringVarP(&clientManifestFlags.output, "output", "o", "", "file to write the manifest to (default: stdout)")
	RootCmd.AddCommand(clientManifestCmd)
}

func runClientManifest(cmd *cobra.Command, args []string) {
	version := args[0]

	c, err := loadConfig()
	if err != nil {
		fail(err)
	}

	e, err := newEngine(c)
	if err != nil {
		fail(err)
	}

	root := clientManifestFlags.root
	if root == "" {
		root = c.Distribution.SourceDir
	}

	manifest, err := e.CreateClientManifest(version, root)
	if err != nil {
		fail(err)
	}

	data, err := pixiepatch.MarshalClientManifest(manifest)
	if err != nil {
		fail(err)
	}

	if clientManifestFlags.output == "" || clientManifestFlags.output == "-" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(clientManifestFlags.output, data, 0644); err != nil {
		fail(err)
	}
}
