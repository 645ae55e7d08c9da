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
	"github.com/spf13/cobra"

	"github.com/valpere/ludotran/internal/pipeline"
)

var exportIncludeFailures bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Rewrite the final per-language files from the current QA cache",
	Long: `Regenerate final/translated_<lang>.json from the on-disk QA cache without
touching any provider. Useful after manual fixes, or to re-export with
different failure handling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(pipeline.Config{
			ProjectDir:      projectDir,
			IncludeFailures: exportIncludeFailures,
			SkipTranslate:   true,
			SkipRefine:      true,
			SkipQA:          true,
		}, pipeline.Deps{}, consoleOptions())
		if err != nil {
			return err
		}
		return p.Export()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportIncludeFailures, "include-failures", false, "Export FAIL slots with their best-known text")
}
