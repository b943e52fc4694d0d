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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgym/pixiepatch/pixiepatch"
)

var planFlags = struct {
	clientManifest string
}{}

var planCmd = &cobra.Command{
	Use:   "plan VERSION",
	Short: "Compute the patch plan from a client manifest to VERSION",
	Long: `plan fetches the manifest for VERSION through the configured
reader and compares it against --client-manifest, printing the resulting
delete/download/patch plan as JSON. Use "pixiepatch apply" to carry the plan
out against a local tree.`,
	Args: cobra.ExactArgs(1),
	Run:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFlags.clientManifest, "client-manifest", "", "path to a client manifest (required)")
	_ = planCmd.MarkFlagRequired("client-manifest")
	RootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
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

	data, err := os.ReadFile(planFlags.clientManifest)
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

	out, err := json.MarshalIndent(plan, "", "    ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(out))
}
