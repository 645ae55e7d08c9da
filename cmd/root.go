/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var (
	projectDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ludotran",
	Short: "Staged game-text translation pipeline",
	Long: `Batch-translates game-text dictionaries (flat JSON key→string maps) through
a four-stage pipeline: machine translation, LLM refinement, LLM QA review,
and export. Every stage persists to JSON caches in the project directory,
so an interrupted batch resumes where it stopped.

Use "ludotran run --help" for pipeline options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "P", ".", "Project directory (caches, logs, exports)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console output")
}

// initConfig reads an optional ludotran.yaml (cwd or home) and LUDOTRAN_*
// environment variables. Flags override config values; see configString.
func initConfig() {
	viper.SetConfigName("ludotran")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("LUDOTRAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; everything has a flag.
	_ = viper.ReadInConfig()
}

// configString resolves a string setting: explicit flag value wins, then the
// viper config/env value, then the flag default.
func configString(flagValue, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}
