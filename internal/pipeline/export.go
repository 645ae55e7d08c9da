package pipeline

import (
	"github.com/valpere/ludotran/internal/cache"
)

// exportStage folds the QA cache into one final key → text mapping per
// language and writes final/translated_<lang>.json. Read-only over the
// caches; FAIL slots are included only when IncludeFailures is set.
func (p *Pipeline) exportStage() error {
	byLang := make(map[string]map[string]string)

	for key, qe := range p.qaCache {
		for lang, slot := range qe.Langs {
			if slot.Translation == "" {
				continue
			}
			if !cache.Exported(slot.Status) {
				if !(slot.Status == cache.StatusFail && p.cfg.IncludeFailures) {
					continue
				}
			}
			m, ok := byLang[lang]
			if !ok {
				m = make(map[string]string)
				byLang[lang] = m
			}
			m[key] = slot.Translation
		}
	}

	for _, lang := range sortedKeys(byLang) {
		if err := cache.Save(p.exportPath(lang), byLang[lang]); err != nil {
			return err
		}
		p.journal.Append(cache.Record{Step: "export", Lang: lang, Detail: p.exportPath(lang)})
		p.logf("exported %d entries for %s", len(byLang[lang]), lang)
	}
	return nil
}

// Export re-runs the export stage alone over the current on-disk caches.
func (p *Pipeline) Export() error {
	if err := p.openJournal(); err != nil {
		return err
	}
	defer p.closeJournal()

	p.loadCaches()
	return p.exportStage()
}
