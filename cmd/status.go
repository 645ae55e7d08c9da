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
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/ludotran/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-language batch progress",
	Long: `Summarize the project's caches: how many entries each language has
translated, refined and judged, broken down by QA status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(pipeline.Config{
			ProjectDir:    projectDir,
			SkipTranslate: true,
			SkipRefine:    true,
			SkipQA:        true,
			SkipExport:    true,
		}, pipeline.Deps{}, pipeline.Options{})
		if err != nil {
			return err
		}

		summary := p.Summary()
		if len(summary) == 0 {
			fmt.Println("No cached work in", projectDir)
			return nil
		}

		langs := make([]string, 0, len(summary))
		for lang := range summary {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprint(w, "LANG\tTRANSLATED\tERRORED\tREFINED")
		for _, s := range pipeline.Statuses() {
			fmt.Fprintf(w, "\t%s", s)
		}
		fmt.Fprintln(w)

		for _, lang := range langs {
			s := summary[lang]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d", lang, s.Translated, s.Errored, s.Refined)
			for _, st := range pipeline.Statuses() {
				fmt.Fprintf(w, "\t%d", s.Statuses[st])
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
