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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultMaxStackDepth = 128
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "dbgpd",
	Short: "dbgpd is a DBGp debugger adapter core.",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main(); it only needs to happen once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print more messages to know what dbgpd is doing")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dbgpd.yaml)")
	RootCmd.PersistentFlags().String("rr-executable", "", "the rr executable (with full path, default: assume rr exists on $PATH)")
	RootCmd.PersistentFlags().String("gdb-executable", "", "the gdb (>= 7.11.1) executable (with full path, default: assume gdb exists on $PATH)")

	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("rr-executable", RootCmd.PersistentFlags().Lookup("rr-executable"))
	viper.BindPFlag("gdb-executable", RootCmd.PersistentFlags().Lookup("gdb-executable"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetConfigName(".dbgpd") // name of config file (without extension)
	viper.AddConfigPath("$HOME")
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	viper.SetDefault("rr-executable", "rr")
	viper.SetDefault("gdb-executable", "gdb")
	viper.SetDefault("php-executable", "php")
	viper.SetDefault("max-stack-depth", defaultMaxStackDepth)
	viper.SetDefault("listen", ":9000")
	viper.SetDefault("idekey", "dbgpd")
	viper.SetDefault("ext-dir", "ext/dbgpd")

	viper.RegisterAlias("rr_executable", "rr-executable")
	viper.RegisterAlias("gdb_executable", "gdb-executable")
	viper.RegisterAlias("php_executable", "php-executable")
	viper.RegisterAlias("max_stack_depth", "max-stack-depth")
	viper.RegisterAlias("ext_dir", "ext-dir")

	if err := viper.ReadInConfig(); err == nil {
		color.Yellow("dbgpd: using config file: %v", viper.ConfigFileUsed())
	}
}
