package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/ludotran/internal/cache"
	"github.com/valpere/ludotran/internal/entry"
	"github.com/valpere/ludotran/internal/placeholder"
	"github.com/valpere/ludotran/internal/translator"
)

// errorTagPrefix marks a slot whose provider call failed. The tagged string
// is data like any other text; downstream stages do not treat it specially.
const errorTagPrefix = "[translation error: "

// IsErrorTagged reports whether a machine-translation slot holds a recorded
// provider failure instead of a translation.
func IsErrorTagged(text string) bool {
	return strings.HasPrefix(text, errorTagPrefix)
}

// translateStage fills the machine-translation cache. Languages run strictly
// one after another so total outstanding requests stay predictable; inside a
// language a bounded worker pool translates every entry whose slot is empty.
// The cache is saved once per completed language.
func (p *Pipeline) translateStage(ctx context.Context) error {
	for _, lang := range p.cfg.TargetLangs {
		pending := p.pendingTranslations(lang)
		if len(pending) == 0 {
			p.logf("translate %s: nothing to do", lang)
			continue
		}
		p.logf("translate %s: %d entries", lang, len(pending))

		var (
			mu   sync.Mutex
			done int
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Workers)

		for _, e := range pending {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				text, step := p.translateOne(gctx, lang, e)

				mu.Lock()
				p.google.Put(e.Key, e.Original, lang, text)
				done++
				n := done
				mu.Unlock()

				p.journal.Append(cache.Record{Step: step, Key: e.Key, Lang: lang, Detail: text})
				p.progress(n, len(pending), lang)
				return nil
			})
		}

		waitErr := g.Wait()

		// Save whatever completed even when the language was interrupted;
		// the next run resumes from these slots.
		if err := cache.Save(p.googlePath(), p.google); err != nil {
			return err
		}
		if waitErr != nil {
			return waitErr
		}
	}
	return nil
}

// pendingTranslations returns the entries whose slot for lang is empty, plus
// error-tagged slots when RetryErrored is on.
func (p *Pipeline) pendingTranslations(lang string) []entry.Entry {
	var pending []entry.Entry
	for _, e := range p.entries {
		text, ok := p.google.Get(e.Key, lang)
		if ok && text != "" && !(p.cfg.RetryErrored && IsErrorTagged(text)) {
			continue
		}
		pending = append(pending, e)
	}
	return pending
}

// translateOne resolves one slot: translation memory first, then the
// provider. A provider error becomes an error-tagged slot value, never a
// stage failure.
func (p *Pipeline) translateOne(ctx context.Context, lang string, e entry.Entry) (text, step string) {
	if p.deps.Memory != nil {
		if hit, found, err := p.deps.Memory.GetCachedTranslation(ctx, e.Original, p.cfg.SourceLang, lang); err != nil {
			p.logError(fmt.Errorf("memory lookup for %s: %w", e.Key, err))
		} else if found {
			return hit, "memory"
		}
	}

	source := e.Original
	var tokens []string
	if p.cfg.ProtectTokens {
		source, tokens = placeholder.Protect(source)
	}

	result, err := p.deps.Translator.Translate(ctx, p.deps.TranslatorConfig, translator.TranslateRequest{
		Text:       source,
		SourceLang: p.cfg.SourceLang,
		TargetLang: lang,
	})
	if err != nil {
		p.logError(fmt.Errorf("translate %s/%s: %w", e.Key, lang, err))
		return errorTagPrefix + err.Error() + "]", "translate_error"
	}

	text = result.TranslatedText
	if p.cfg.ProtectTokens {
		if missing := placeholder.Validate(text, tokens); len(missing) > 0 {
			p.logf("translate %s/%s: %d token(s) lost by provider", e.Key, lang, len(missing))
		}
		text = placeholder.Restore(text, tokens)
	}

	if p.deps.Memory != nil {
		if err := p.deps.Memory.SaveToMemory(ctx, e.Original, p.cfg.SourceLang, lang, text, result.ServiceName); err != nil {
			p.logError(fmt.Errorf("memory save for %s: %w", e.Key, err))
		}
	}
	return text, "translate"
}
