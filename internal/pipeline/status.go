package pipeline

import "github.com/valpere/ludotran/internal/cache"

// LangSummary counts a language's slots per stage and QA status.
type LangSummary struct {
	Translated int
	Errored    int
	Refined    int
	Statuses   map[string]int
}

// Summary reports per-language progress across the three caches, for the
// status command and for deciding whether a batch still needs review.
func (p *Pipeline) Summary() map[string]*LangSummary {
	p.loadCaches()

	byLang := make(map[string]*LangSummary)
	get := func(lang string) *LangSummary {
		s, ok := byLang[lang]
		if !ok {
			s = &LangSummary{Statuses: make(map[string]int)}
			byLang[lang] = s
		}
		return s
	}

	for _, ge := range p.google {
		for lang, text := range ge.Langs {
			if text == "" {
				continue
			}
			s := get(lang)
			if IsErrorTagged(text) {
				s.Errored++
			} else {
				s.Translated++
			}
		}
	}
	for _, re := range p.refined {
		for lang, slot := range re.Langs {
			if slot.Refined != "" {
				get(lang).Refined++
			}
		}
	}
	for _, qe := range p.qaCache {
		for lang, slot := range qe.Langs {
			if slot.Status != "" {
				get(lang).Statuses[slot.Status]++
			}
		}
	}
	return byLang
}

// Statuses returns the QA statuses in display order.
func Statuses() []string {
	return []string{
		cache.StatusPending,
		cache.StatusOK,
		cache.StatusOKIdentical,
		cache.StatusFixed,
		cache.StatusFail,
		cache.StatusOKManual,
	}
}
