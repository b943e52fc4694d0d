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

// Package cmd implements the pixiepatch command line interface: building
// distributions, planning and applying patches, and producing the client
// manifest a plan is computed against.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgym/pixiepatch/log"
)

var configFile string
var rootFlags *pflag.FlagSet

var rootCmdFlags = struct {
	logLevel int
}{}

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:  "pixiepatch",
	Long: `pixiepatch builds content-addressed distributions and plans and applies incremental patches against them.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLogLevel(rootCmdFlags.logLevel)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(cmd.UsageString())
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to run once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file to use (default \"./pixiepatch.conf\")")
	RootCmd.PersistentFlags().IntVar(&rootCmdFlags.logLevel, "log-level", log.LevelInfo, "log verbosity, 1 (error) through 5 (verbose)")
	rootFlags = RootCmd.PersistentFlags()
}

func fail(err error) {
	log.Error(log.Core, "%s", err)
	os.Exit(1)
}
