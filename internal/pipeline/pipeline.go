// Package pipeline orchestrates the staged translation of a game-text batch:
// machine translation, LLM refinement, LLM QA review, export. Stages are hard
// barriers; each one runs to completion over every (key, language) slot before
// the next starts, because every stage reads a fully-populated upstream cache.
//
// All pipeline state lives in three JSON caches under the project directory.
// Every mutation is persisted immediately (or at a small bounded interval),
// so an interrupted run resumes by re-reading the caches and skipping
// populated slots. That is the sole recovery mechanism.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/valpere/ludotran/internal/cache"
	"github.com/valpere/ludotran/internal/entry"
	"github.com/valpere/ludotran/internal/lockfile"
	"github.com/valpere/ludotran/internal/qa"
	"github.com/valpere/ludotran/internal/refiner"
	"github.com/valpere/ludotran/internal/store"
	"github.com/valpere/ludotran/internal/translator"
)

// Config is the explicit per-run configuration. No package-level state.
type Config struct {
	// ProjectDir holds cache/, logs/ and final/ for one batch.
	ProjectDir string
	// Inputs are JSON dictionaries (or directories of them), merged in
	// order with later files overriding earlier ones.
	Inputs      []string
	SourceLang  string
	TargetLangs []string

	// Workers bounds the translation worker pool within one language.
	Workers int
	// MaxAttempts bounds QA validation cycles per slot.
	MaxAttempts int
	// RetryOnFail enables the immediate in-run re-validation of a FIXED slot.
	RetryOnFail bool
	// SaveEvery is the refinement persistence interval in slots, clamped
	// to 1..20.
	SaveEvery int
	// RetryErrored makes error-tagged machine-translation slots count as
	// empty on the next run.
	RetryErrored bool
	// ProtectTokens guards game-format tokens with [TKn] markers around
	// provider calls.
	ProtectTokens bool
	// IncludeFailures exports FAIL slots with their best-known text.
	IncludeFailures bool

	SkipTranslate bool
	SkipRefine    bool
	SkipQA        bool
	SkipExport    bool
}

// Options carries the pipeline's callbacks. All are optional and must not
// block; they run on the pipeline's goroutines.
type Options struct {
	// OnProgress is invoked with (done, total, lang) after each unit of work.
	OnProgress func(done, total int, lang string)
	OnLog      func(msg string)
	OnError    func(err error)
}

// LanguageChecker flags translations that do not look like the target
// language. Warnings only; satisfied by validator.Validator.
type LanguageChecker interface {
	IsValid(translatedText, targetLang string) (bool, error)
}

// Deps are the pipeline's collaborators. Translator, Refiner and Reviewer
// are required; Memory and Checker are optional.
type Deps struct {
	Translator       translator.TranslationService
	TranslatorConfig translator.ServiceConfig
	Refiner          refiner.Refiner
	Reviewer         qa.Reviewer
	Memory           *store.Store
	Checker          LanguageChecker
}

// Pipeline owns the three caches for the duration of one run. Concurrent
// runs over the same project directory are rejected by the lock file.
type Pipeline struct {
	cfg  Config
	deps Deps
	opts Options

	google  cache.Google
	refined cache.Refined
	qaCache cache.QA
	journal *cache.Journal
	entries []entry.Entry
	loaded  bool
}

// New validates cfg and applies defaults. Nothing is read from disk until a
// stage method runs.
func New(cfg Config, deps Deps, opts Options) (*Pipeline, error) {
	if cfg.ProjectDir == "" {
		return nil, fmt.Errorf("project directory is required")
	}
	if deps.Translator == nil && !cfg.SkipTranslate {
		return nil, fmt.Errorf("translator is required")
	}
	if deps.Refiner == nil && !cfg.SkipRefine {
		return nil, fmt.Errorf("refiner is required")
	}
	if deps.Reviewer == nil && !cfg.SkipQA {
		return nil, fmt.Errorf("reviewer is required")
	}

	if cfg.SourceLang == "" {
		cfg.SourceLang = "auto"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.SaveEvery < 1 {
		cfg.SaveEvery = 1
	}
	if cfg.SaveEvery > 20 {
		cfg.SaveEvery = 20
	}

	return &Pipeline{cfg: cfg, deps: deps, opts: opts}, nil
}

func (p *Pipeline) googlePath() string { return filepath.Join(p.cfg.ProjectDir, "cache", "google.json") }
func (p *Pipeline) refinedPath() string {
	return filepath.Join(p.cfg.ProjectDir, "cache", "refined.json")
}
func (p *Pipeline) qaPath() string   { return filepath.Join(p.cfg.ProjectDir, "cache", "qa.json") }
func (p *Pipeline) lockPath() string { return filepath.Join(p.cfg.ProjectDir, "cache", "ludotran.lock") }
func (p *Pipeline) journalPath() string {
	return filepath.Join(p.cfg.ProjectDir, "logs", "translation_log.jsonl")
}
func (p *Pipeline) exportPath(lang string) string {
	return filepath.Join(p.cfg.ProjectDir, "final", "translated_"+lang+".json")
}

// Run executes every enabled stage in order under the project lock.
func (p *Pipeline) Run(ctx context.Context) error {
	lock, err := lockfile.Acquire(p.lockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := p.openJournal(); err != nil {
		return err
	}
	defer p.closeJournal()

	p.journal.Append(cache.Record{Step: "run_start"})

	if err := p.loadInputs(); err != nil {
		return err
	}
	p.loadCaches()

	if !p.cfg.SkipTranslate {
		if err := p.translateStage(ctx); err != nil {
			return fmt.Errorf("translation stage: %w", err)
		}
	}
	if !p.cfg.SkipRefine {
		if err := p.refineStage(ctx); err != nil {
			return fmt.Errorf("refinement stage: %w", err)
		}
	}
	if !p.cfg.SkipQA {
		if err := p.qaStage(ctx, p.cfg.RetryOnFail, false); err != nil {
			return fmt.Errorf("qa stage: %w", err)
		}
	}
	if !p.cfg.SkipExport {
		if err := p.exportStage(); err != nil {
			return fmt.Errorf("export stage: %w", err)
		}
	}

	p.journal.Append(cache.Record{Step: "run_end"})
	return nil
}

// loadInputs merges the configured input documents. Unreadable files are
// reported and skipped; an empty batch is not an error because later stages
// can still make progress on previously cached slots.
func (p *Pipeline) loadInputs() error {
	merged, skipped := entry.LoadAll(p.cfg.Inputs)
	for _, err := range skipped {
		p.logError(err)
		p.journal.Append(cache.Record{Step: "input_skipped", Error: err.Error()})
	}
	p.entries = entry.Sorted(merged)
	p.logf("loaded %d entries from %d input(s)", len(p.entries), len(p.cfg.Inputs))
	return nil
}

// loadCaches reads the three caches. Corrupt or unreadable files come back
// empty; the run re-derives their contents going forward.
func (p *Pipeline) loadCaches() {
	if p.loaded {
		return
	}

	var err error
	if p.google, err = cache.LoadGoogle(p.googlePath()); err != nil {
		p.logError(err)
	}
	if p.refined, err = cache.LoadRefined(p.refinedPath()); err != nil {
		p.logError(err)
	}
	if p.qaCache, err = cache.LoadQA(p.qaPath()); err != nil {
		p.logError(err)
	}
	p.loaded = true
}

func (p *Pipeline) openJournal() error {
	if p.journal != nil {
		return nil
	}
	j, err := cache.OpenJournal(p.journalPath(), uuid.New().String())
	if err != nil {
		return err
	}
	p.journal = j
	return nil
}

func (p *Pipeline) closeJournal() {
	p.journal.Close()
	p.journal = nil
}

// sortedKeys returns the keys of any of the three cache maps in stable order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Pipeline) progress(done, total int, lang string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(done, total, lang)
	}
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.opts.OnLog != nil {
		p.opts.OnLog(fmt.Sprintf(format, args...))
	}
}

func (p *Pipeline) logError(err error) {
	if p.opts.OnError != nil {
		p.opts.OnError(err)
	}
}
