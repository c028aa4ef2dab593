/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	prof    interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "godpg",
	Short: "Residual and Jacobian assembly for DG and DPG discretizations",
	Long: `
Builds a mesh and its element containers, assembles the residual and its
linearization for advection, Burgers or Euler, and adapts the mesh in h and p.

godpg assemble -M mesh.yaml -I input.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		prof = startProfile(viper.GetString("profile"), viper.GetString("profileDir"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if prof != nil {
			prof.Stop()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.godpg.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile the run: cpu, mem or trace")
	rootCmd.PersistentFlags().String("profileDir", ".", "directory receiving the profile output")
	rootCmd.PersistentFlags().IntP("parallel", "p", 0, "number of assembly tasks, overrides ParallelDegree when set")
	for _, name := range []string{"profile", "profileDir", "parallel"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".godpg")
	}
	viper.SetEnvPrefix("GODPG")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func startProfile(kind, dir string) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch kind {
	case "":
		return nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		fmt.Printf("unknown profile %q, profiling disabled\n", kind)
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(dir), profile.NoShutdownHook)
}
