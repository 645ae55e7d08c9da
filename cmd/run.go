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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/ludotran/internal/llm"
	"github.com/valpere/ludotran/internal/pipeline"
	"github.com/valpere/ludotran/internal/qa"
	"github.com/valpere/ludotran/internal/refiner"
	"github.com/valpere/ludotran/internal/store"
	"github.com/valpere/ludotran/internal/translator"
	"github.com/valpere/ludotran/internal/validator"
)

var (
	runInputs   []string
	sourceLang  string
	targetLangs []string

	serviceName    string
	credentials    string
	apiKey         string
	mymemoryEmail  string
	serviceTimeout time.Duration

	llmURL         string
	llmModel       string
	llmMaxTokens   int
	llmTemperature float64
	llmRetries     int

	workers         int
	maxAttempts     int
	retryOnFail     bool
	saveEvery       int
	retryErrored    bool
	protectTokens   bool
	includeFailures bool

	skipTranslate bool
	skipRefine    bool
	skipQA        bool
	skipExport    bool

	runDBPath   string
	noMemory    bool
	noLangCheck bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full translation pipeline over a batch",
	Long: `Run the staged pipeline: machine translation, LLM refinement, LLM QA
review, and export. Inputs are flat JSON dictionaries merged by key; later
files override earlier ones. Re-running resumes from the cached state and
skips completed slots.

Providers:
  - google     Google Cloud Translation (credentials file or API key)
  - mymemory   MyMemory free API (no credentials, daily quota)

The refinement and QA stages talk to an OpenAI-compatible local endpoint
(llama-server, Ollama) configured with --llm-url and --model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(configString(serviceName, "service"))
		if err != nil {
			return err
		}

		client := llm.New(llm.Config{
			BaseURL:     configString(llmURL, "llm.url"),
			Model:       configString(llmModel, "llm.model"),
			MaxTokens:   llmMaxTokens,
			Temperature: llmTemperature,
			MaxRetries:  llmRetries,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !skipRefine || !skipQA {
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := client.IsAvailable(probeCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("llm endpoint check failed: %w", err)
			}
		}

		deps := pipeline.Deps{
			Translator: svc,
			TranslatorConfig: translator.ServiceConfig{
				Credentials: configString(credentials, "credentials"),
				APIKey:      configString(apiKey, "api_key"),
				Email:       configString(mymemoryEmail, "mymemory_email"),
				Timeout:     serviceTimeout,
			},
			Refiner:  refiner.NewLLMRefiner(client),
			Reviewer: qa.NewLLMReviewer(client),
		}

		if !noMemory {
			db, err := store.New(memoryDBPath(runDBPath))
			if err != nil {
				return fmt.Errorf("failed to open translation memory: %w", err)
			}
			defer db.Close()
			deps.Memory = db
		}
		if !noLangCheck {
			deps.Checker = validator.New()
		}

		p, err := pipeline.New(pipeline.Config{
			ProjectDir:      projectDir,
			Inputs:          runInputs,
			SourceLang:      sourceLang,
			TargetLangs:     targetLangs,
			Workers:         workers,
			MaxAttempts:     maxAttempts,
			RetryOnFail:     retryOnFail,
			SaveEvery:       saveEvery,
			RetryErrored:    retryErrored,
			ProtectTokens:   protectTokens,
			IncludeFailures: includeFailures,
			SkipTranslate:   skipTranslate,
			SkipRefine:      skipRefine,
			SkipQA:          skipQA,
			SkipExport:      skipExport,
		}, deps, consoleOptions())
		if err != nil {
			return err
		}

		if err := p.Run(ctx); err != nil {
			return err
		}

		if failures := p.Failures(); len(failures) > 0 {
			fmt.Printf("%d record(s) need review: ludotran review -P %s\n", len(failures), projectDir)
		}
		fmt.Println("Pipeline complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runInputs, "input", "i", nil, "Input JSON dictionaries or directories (required)")
	runCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	runCmd.Flags().StringSliceVarP(&targetLangs, "target", "t", nil, "Target language codes (required)")

	runCmd.Flags().StringVar(&serviceName, "service", "google", "Machine-translation provider (google, mymemory)")
	runCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Path to Google Cloud credentials")
	runCmd.Flags().StringVar(&apiKey, "api-key", "", "Google Translation API key")
	runCmd.Flags().StringVar(&mymemoryEmail, "mymemory-email", "", "MyMemory email (for higher limits)")
	runCmd.Flags().DurationVar(&serviceTimeout, "service-timeout", 30*time.Second, "Per-request machine-translation timeout")

	runCmd.Flags().StringVar(&llmURL, "llm-url", "http://localhost:8080", "OpenAI-compatible LLM base URL")
	runCmd.Flags().StringVar(&llmModel, "model", "qwen2.5-7b-instruct", "LLM model name")
	runCmd.Flags().IntVar(&llmMaxTokens, "max-tokens", 256, "LLM completion token limit")
	runCmd.Flags().Float64Var(&llmTemperature, "temperature", 0.2, "LLM sampling temperature")
	runCmd.Flags().IntVar(&llmRetries, "llm-retries", 3, "Total attempts per LLM call including the first")

	runCmd.Flags().IntVar(&workers, "workers", 8, "Translation worker pool size (per language)")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "QA validation attempts per slot")
	runCmd.Flags().BoolVar(&retryOnFail, "retry-on-fail", true, "Re-validate corrected translations once in-run")
	runCmd.Flags().IntVar(&saveEvery, "save-every", 1, "Refinement persistence interval in slots (1-20)")
	runCmd.Flags().BoolVar(&retryErrored, "retry-errored", false, "Re-translate error-tagged slots")
	runCmd.Flags().BoolVar(&protectTokens, "protect-tokens", true, "Guard game-format tokens with [TKn] markers")
	runCmd.Flags().BoolVar(&includeFailures, "include-failures", false, "Export FAIL slots with their best-known text")

	runCmd.Flags().BoolVar(&skipTranslate, "skip-translate", false, "Skip the machine-translation stage")
	runCmd.Flags().BoolVar(&skipRefine, "skip-refine", false, "Skip the refinement stage")
	runCmd.Flags().BoolVar(&skipQA, "skip-qa", false, "Skip the QA review stage")
	runCmd.Flags().BoolVar(&skipExport, "skip-export", false, "Skip the export stage")

	runCmd.Flags().StringVar(&runDBPath, "db", "", "Translation memory database path (default <project>/cache/memory.db)")
	runCmd.Flags().BoolVar(&noMemory, "no-memory", false, "Disable the translation memory")
	runCmd.Flags().BoolVar(&noLangCheck, "no-language-check", false, "Disable target-language warnings")

	runCmd.MarkFlagRequired("input")
	runCmd.MarkFlagRequired("target")
}
