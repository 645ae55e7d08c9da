package pipeline

import (
	"context"
	"fmt"

	"github.com/valpere/ludotran/internal/cache"
)

// refineStage asks the LLM to polish every machine translation that has no
// refined text yet. Strictly sequential: the local model is shared and slow,
// so it never sees concurrent requests. Each (re)written slot resets its QA
// status to PENDING; both caches are persisted every SaveEvery updates so a
// crash loses at most that many refinements.
func (p *Pipeline) refineStage(ctx context.Context) error {
	glossaries := make(map[string]map[string]string)

	total := p.countRefinePending()
	var done, sinceSave int

	for _, key := range sortedKeys(p.google) {
		ge := p.google[key]
		for _, lang := range sortedKeys(ge.Langs) {
			if err := ctx.Err(); err != nil {
				return err
			}

			draft := ge.Langs[lang]
			if draft == "" {
				continue
			}
			if slot, ok := p.refined.Get(key, lang); ok && slot.Refined != "" {
				continue
			}

			glossary, ok := glossaries[lang]
			if !ok {
				glossary = p.glossaryFor(ctx, lang)
				glossaries[lang] = glossary
			}

			refined, err := p.deps.Refiner.Refine(ctx, lang, ge.Original, draft, glossary)
			if err != nil {
				// Slot stays empty and is retried on the next run.
				p.logError(fmt.Errorf("refine %s/%s: %w", key, lang, err))
				p.journal.Append(cache.Record{Step: "refine_error", Key: key, Lang: lang, Error: err.Error()})
				done++
				p.progress(done, total, lang)
				continue
			}

			prev, _ := p.refined.Get(key, lang)
			p.refined.Put(key, ge.Original, lang, cache.RefinedSlot{
				Google:   draft,
				Refined:  refined,
				Attempts: prev.Attempts + 1,
			})
			// New refined text: any previous QA decision is stale.
			p.qaCache.Put(key, ge.Original, lang, cache.QASlot{Status: cache.StatusPending})

			p.journal.Append(cache.Record{Step: "refine", Key: key, Lang: lang, Detail: refined})

			done++
			sinceSave++
			if sinceSave >= p.cfg.SaveEvery {
				if err := p.saveRefineState(); err != nil {
					return err
				}
				sinceSave = 0
			}
			p.progress(done, total, lang)
		}
	}

	if sinceSave > 0 {
		return p.saveRefineState()
	}
	return nil
}

func (p *Pipeline) saveRefineState() error {
	if err := cache.Save(p.refinedPath(), p.refined); err != nil {
		return err
	}
	return cache.Save(p.qaPath(), p.qaCache)
}

func (p *Pipeline) countRefinePending() int {
	var n int
	for key, ge := range p.google {
		for lang, draft := range ge.Langs {
			if draft == "" {
				continue
			}
			if slot, ok := p.refined.Get(key, lang); ok && slot.Refined != "" {
				continue
			}
			n++
		}
	}
	return n
}

// glossaryFor fetches the mandatory term translations for one target
// language. No store means no glossary.
func (p *Pipeline) glossaryFor(ctx context.Context, lang string) map[string]string {
	if p.deps.Memory == nil {
		return nil
	}
	terms, err := p.deps.Memory.GetGlossaryTerms(ctx, p.cfg.SourceLang, lang)
	if err != nil {
		p.logError(fmt.Errorf("glossary lookup for %s: %w", lang, err))
		return nil
	}
	return terms
}
