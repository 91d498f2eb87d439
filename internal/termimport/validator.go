package termimport

import (
	"fmt"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Validate checks a parsed term file before anything touches the queue.
// Per-item constraints (priority bounds, language codes) are re-checked by
// the queue on enqueue; this pass catches file-level problems with the
// offending index in the message.
func Validate(f TermFile) error {
	if len(f.Terms) == 0 {
		return fmt.Errorf("term file has no terms")
	}

	seen := make(map[string]int, len(f.Terms))
	for i, spec := range f.Terms {
		normalized := domain.NormalizeTerm(spec.Term)
		if normalized == "" {
			return fmt.Errorf("terms[%d]: empty term", i)
		}
		if prev, ok := seen[normalized]; ok {
			return fmt.Errorf("terms[%d]: duplicate of terms[%d] (%q)", i, prev, spec.Term)
		}
		seen[normalized] = i

		if spec.Priority != 0 && (spec.Priority < domain.MinSeedPriority || spec.Priority > domain.MaxSeedPriority) {
			return fmt.Errorf("terms[%d] %q: priority %d out of range [%d, %d]",
				i, spec.Term, spec.Priority, domain.MinSeedPriority, domain.MaxSeedPriority)
		}
		for _, lang := range spec.Languages {
			if len(lang) != 2 {
				return fmt.Errorf("terms[%d] %q: language %q is not an ISO 639-1 code", i, spec.Term, lang)
			}
		}
	}
	return nil
}
