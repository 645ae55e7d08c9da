package pipeline

import (
	"context"
	"fmt"

	"github.com/valpere/ludotran/internal/cache"
)

// qaStage validates every refined slot with the LLM judge and settles it
// into a terminal status. The state machine per slot:
//
//	PENDING → OK | OK_IDENTICAL | FIXED | FAIL
//	FIXED   → OK | FAIL   (one immediate re-validation of the correction)
//
// A FIXED correction is pushed back into the refined cache before the
// re-validation, so downstream consumers and fresh runs see it as the
// current refined text. Attempts are bounded by MaxAttempts; both caches
// and the journal are persisted after every decision, bounding crash loss
// to the single in-flight slot.
//
// retryOnFail enables the in-run re-validation of corrections. recheckFailed
// lets previously settled FAIL slots through for exactly one more validation
// (the manual-review revalidate mode). OK_MANUAL slots are never reprocessed
// unless their refined text changed underneath them.
func (p *Pipeline) qaStage(ctx context.Context, retryOnFail, recheckFailed bool) error {
	total := p.countQAPending(recheckFailed)
	var done int

	for _, key := range sortedKeys(p.refined) {
		re := p.refined[key]
		for _, lang := range sortedKeys(re.Langs) {
			if err := ctx.Err(); err != nil {
				return err
			}

			slot := re.Langs[lang]
			if slot.Refined == "" {
				continue
			}
			if p.qaSettled(key, lang, slot.Refined, recheckFailed) {
				continue
			}

			if err := p.reviewSlot(ctx, key, lang, re.Original, retryOnFail); err != nil {
				// Judge unreachable: leave the slot as-is for the next run.
				p.logError(fmt.Errorf("qa %s/%s: %w", key, lang, err))
				p.journal.Append(cache.Record{Step: "qa_error", Key: key, Lang: lang, Error: err.Error()})
			}

			done++
			p.progress(done, total, lang)
		}
	}
	return nil
}

// qaSettled reports whether a slot's stored decision still stands. A
// terminal status only holds while the stored translation matches the
// current refined text; a later refinement change reopens the slot.
func (p *Pipeline) qaSettled(key, lang, refinedText string, recheckFailed bool) bool {
	qslot, ok := p.qaCache.Get(key, lang)
	if !ok || !cache.Terminal(qslot.Status) {
		return false
	}
	if qslot.Translation != refinedText {
		return false
	}
	if qslot.Status == cache.StatusFail && recheckFailed {
		return false
	}
	return true
}

// reviewSlot runs the bounded validation loop for one slot and persists the
// decision.
func (p *Pipeline) reviewSlot(ctx context.Context, key, lang, original string, retryOnFail bool) error {
	slot, _ := p.refined.Get(key, lang)
	qslot, _ := p.qaCache.Get(key, lang)

	verdict, err := p.deps.Reviewer.Review(ctx, lang, original, slot.Refined)
	if err != nil {
		return err
	}
	attempts := qslot.Attempts + 1

	switch {
	case verdict.Approved:
		qslot = cache.QASlot{Status: cache.StatusOK, Translation: slot.Refined, Attempts: attempts}

	case verdict.Text == slot.Refined:
		// The model echoed its approval as the unchanged translation.
		qslot = cache.QASlot{Status: cache.StatusOKIdentical, Translation: slot.Refined, Attempts: attempts}

	default:
		correction := verdict.Text
		qslot = cache.QASlot{Status: cache.StatusFixed, Translation: correction, Attempts: attempts}

		// Repair propagation: the correction becomes the refined text.
		slot.Refined = correction
		p.refined.Put(key, original, lang, slot)
		p.qaCache.Put(key, original, lang, qslot)
		if err := p.saveQAState(); err != nil {
			return err
		}
		p.journal.Append(cache.Record{Step: "qa", Key: key, Lang: lang, Status: qslot.Status, Detail: correction})

		if !retryOnFail || attempts >= p.cfg.MaxAttempts {
			qslot.Status = cache.StatusFail
			break
		}

		second, err := p.deps.Reviewer.Review(ctx, lang, original, correction)
		if err != nil {
			// FIXED survives the crash of its re-validation; the slot is
			// non-terminal and gets re-examined on the next run.
			return err
		}
		attempts++
		if second.Approved {
			qslot = cache.QASlot{Status: cache.StatusOK, Translation: correction, Attempts: attempts}
		} else {
			qslot = cache.QASlot{Status: cache.StatusFail, Translation: correction, Attempts: attempts}
		}
	}

	p.qaCache.Put(key, original, lang, qslot)
	if err := p.saveQAState(); err != nil {
		return err
	}
	p.journal.Append(cache.Record{Step: "qa", Key: key, Lang: lang, Status: qslot.Status, Detail: qslot.Translation})

	p.checkLanguage(key, lang, qslot.Translation)
	return nil
}

func (p *Pipeline) saveQAState() error {
	if err := cache.Save(p.qaPath(), p.qaCache); err != nil {
		return err
	}
	return cache.Save(p.refinedPath(), p.refined)
}

func (p *Pipeline) countQAPending(recheckFailed bool) int {
	var n int
	for key, re := range p.refined {
		for lang, slot := range re.Langs {
			if slot.Refined == "" {
				continue
			}
			if p.qaSettled(key, lang, slot.Refined, recheckFailed) {
				continue
			}
			n++
		}
	}
	return n
}

// checkLanguage journals a warning when the settled translation does not
// look like the target language. Advisory only.
func (p *Pipeline) checkLanguage(key, lang, text string) {
	if p.deps.Checker == nil || text == "" {
		return
	}
	if ok, err := p.deps.Checker.IsValid(text, lang); !ok && err != nil {
		p.logf("language check %s/%s: %v", key, lang, err)
		p.journal.Append(cache.Record{Step: "language_warning", Key: key, Lang: lang, Error: err.Error()})
	}
}
