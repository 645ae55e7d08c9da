package pipeline

import (
	"context"
	"fmt"

	"github.com/valpere/ludotran/internal/cache"
	"github.com/valpere/ludotran/internal/lockfile"
)

// Failure is one record awaiting human review.
type Failure struct {
	Key         string
	Lang        string
	Original    string
	Translation string
}

// Failures lists every slot the automatic pipeline gave up on, sorted by key
// then language.
func (p *Pipeline) Failures() []Failure {
	p.loadCaches()

	var out []Failure
	for _, key := range sortedKeys(p.qaCache) {
		qe := p.qaCache[key]
		for _, lang := range sortedKeys(qe.Langs) {
			slot := qe.Langs[lang]
			if slot.Status != cache.StatusFail {
				continue
			}
			out = append(out, Failure{
				Key:         key,
				Lang:        lang,
				Original:    qe.Original,
				Translation: slot.Translation,
			})
		}
	}
	return out
}

// ApplyManual records a human-supplied replacement for one slot: QA status
// becomes OK_MANUAL and the refined text is overwritten so a later
// revalidation judges the human text, not the rejected one. Both caches are
// persisted before returning.
func (p *Pipeline) ApplyManual(key, lang, text string) error {
	if text == "" {
		return fmt.Errorf("manual replacement text is empty")
	}
	if err := p.openJournal(); err != nil {
		return err
	}
	defer p.closeJournal()

	p.loadCaches()

	qslot, ok := p.qaCache.Get(key, lang)
	if !ok {
		return fmt.Errorf("no QA record for %s/%s", key, lang)
	}

	original := p.qaCache[key].Original
	p.qaCache.Put(key, original, lang, cache.QASlot{
		Status:      cache.StatusOKManual,
		Translation: text,
		Attempts:    qslot.Attempts + 1,
	})

	rslot, _ := p.refined.Get(key, lang)
	rslot.Refined = text
	p.refined.Put(key, original, lang, rslot)

	if err := p.saveQAState(); err != nil {
		return err
	}
	p.journal.Append(cache.Record{Step: "manual", Key: key, Lang: lang, Status: cache.StatusOKManual, Detail: text})
	return nil
}

// Revalidate re-runs the QA stage with retries disabled and FAIL slots
// allowed one more validation each, then re-exports. Manually corrected
// slots are terminal and pass through untouched.
func (p *Pipeline) Revalidate(ctx context.Context) error {
	lock, err := lockfile.Acquire(p.lockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := p.openJournal(); err != nil {
		return err
	}
	defer p.closeJournal()

	p.loadCaches()
	p.journal.Append(cache.Record{Step: "revalidate_start"})

	if err := p.qaStage(ctx, false, true); err != nil {
		return fmt.Errorf("qa stage: %w", err)
	}
	if err := p.exportStage(); err != nil {
		return fmt.Errorf("export stage: %w", err)
	}

	p.journal.Append(cache.Record{Step: "revalidate_end"})
	return nil
}
