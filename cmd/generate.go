// Copyright © 2016 Sidharth Kshatriya
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
	"log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbgpcore/dbgpd/internal/rrgdb"
)

var gExtDir string

func init() {
	RootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&gExtDir, "ext-dir", "", "where to write dontbug_break.c (default is \"./ext/dbgpd\")")
	generateCmd.Flags().Int("max-stack-depth", defaultMaxStackDepth, "max depth of stack during execution")
	viper.BindPFlag("max-stack-depth", generateCmd.Flags().Lookup("max-stack-depth"))
}

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate <root-dir>",
	Short: "Pre-compute the rrgdb backend's file -> line breakpoint map",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			log.Fatal("Please provide root directory of PHP source files on the command line")
		}

		extDir := gExtDir
		if extDir == "" {
			extDir = viper.GetString("ext-dir")
			color.Yellow("dbgpd: no --ext-dir provided, assuming %q", extDir)
		}

		maxStackDepth := viper.GetInt("max-stack-depth")
		if err := rrgdb.Generate(args[0], extDir, maxStackDepth); err != nil {
			log.Fatal(err)
		}
		color.Green("dbgpd: wrote %s/dontbug_break.c", extDir)
	},
}
