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
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/ludotran/internal/llm"
	"github.com/valpere/ludotran/internal/pipeline"
	"github.com/valpere/ludotran/internal/qa"
)

var (
	reviewListOnly   bool
	reviewRevalidate bool
	reviewLLMURL     string
	reviewModel      string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review and fix translations the QA stage rejected",
	Long: `Walk through every FAIL record interactively: each prompt shows the
original text and the best correction the pipeline produced. Type a
replacement to accept it as the final translation, or press Enter to skip.

With --revalidate, rejected slots that were not fixed by hand get one more
LLM validation pass, and the export files are rewritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := reviewPipeline()
		if err != nil {
			return err
		}

		failures := p.Failures()
		if len(failures) == 0 {
			fmt.Println("No records need review.")
		}
		for _, f := range failures {
			fmt.Printf("%s [%s]\n  original:   %s\n  rejected:   %s\n", f.Key, f.Lang, f.Original, f.Translation)
		}
		if reviewListOnly {
			return nil
		}

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		fixed := 0
		for _, f := range failures {
			fmt.Printf("\n%s [%s]\n  original:   %s\n  rejected:   %s\nreplacement (Enter to skip): ", f.Key, f.Lang, f.Original, f.Translation)
			if !scanner.Scan() {
				break
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if err := p.ApplyManual(f.Key, f.Lang, text); err != nil {
				return err
			}
			fixed++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if fixed > 0 {
			fmt.Printf("Applied %d manual fix(es).\n", fixed)
		}

		if reviewRevalidate {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Println("Re-validating remaining rejections...")
			if err := p.Revalidate(ctx); err != nil {
				return err
			}
		} else if fixed > 0 {
			// Re-export so manual fixes land in final/ without a full run.
			if err := p.Export(); err != nil {
				return err
			}
		}
		return nil
	},
}

// reviewPipeline builds a pipeline over the existing caches only. The
// reviewer is wired so --revalidate can re-judge rejected slots.
func reviewPipeline() (*pipeline.Pipeline, error) {
	client := llm.New(llm.Config{
		BaseURL: configString(reviewLLMURL, "llm.url"),
		Model:   configString(reviewModel, "llm.model"),
	})
	return pipeline.New(pipeline.Config{
		ProjectDir:    projectDir,
		SkipTranslate: true,
		SkipRefine:    true,
	}, pipeline.Deps{Reviewer: qa.NewLLMReviewer(client)}, consoleOptions())
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().BoolVar(&reviewListOnly, "list", false, "List rejected records without prompting")
	reviewCmd.Flags().BoolVar(&reviewRevalidate, "revalidate", false, "Re-validate unfixed rejections after review")
	reviewCmd.Flags().StringVar(&reviewLLMURL, "llm-url", "http://localhost:8080", "OpenAI-compatible LLM base URL")
	reviewCmd.Flags().StringVar(&reviewModel, "model", "qwen2.5-7b-instruct", "LLM model name")
}
