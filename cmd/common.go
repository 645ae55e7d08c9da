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
	"path/filepath"

	"github.com/valpere/ludotran/internal/pipeline"
	"github.com/valpere/ludotran/internal/translator"
)

// buildService constructs the machine-translation provider by name.
func buildService(name string) (translator.TranslationService, error) {
	switch name {
	case "google":
		return translator.NewGoogleService(), nil
	case "mymemory":
		return translator.NewMyMemoryService(), nil
	default:
		return nil, fmt.Errorf("unknown translation service: %s (use google or mymemory)", name)
	}
}

// memoryDBPath resolves the translation-memory database path: the explicit
// flag when given, otherwise cache/memory.db inside the project directory.
func memoryDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(projectDir, "cache", "memory.db")
}

// consoleOptions wires pipeline callbacks to the terminal: progress on
// stdout, errors on stderr, logs only when --verbose.
func consoleOptions() pipeline.Options {
	return pipeline.Options{
		OnProgress: func(done, total int, lang string) {
			fmt.Printf("\r[%s] %d/%d", lang, done, total)
			if done == total {
				fmt.Println()
			}
		},
		OnLog: func(msg string) {
			if verbose {
				fmt.Fprintln(os.Stderr, msg)
			}
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		},
	}
}
