package termimport

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Map converts a validated term file into queue items, filling omitted
// priority and languages from the importer defaults.
func Map(f TermFile, defaultPriority int, defaultLanguages []string) []domain.SeedQueueItem {
	items := make([]domain.SeedQueueItem, 0, len(f.Terms))
	for _, spec := range f.Terms {
		priority := spec.Priority
		if priority == 0 {
			priority = defaultPriority
		}
		languages := spec.Languages
		if len(languages) == 0 {
			languages = defaultLanguages
		}
		items = append(items, domain.SeedQueueItem{
			Term:      spec.Term,
			Priority:  priority,
			Languages: languages,
		})
	}
	return items
}

// ReadFile parses and validates a term file from disk.
func ReadFile(path string) (TermFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TermFile{}, fmt.Errorf("read term file: %w", err)
	}

	var f TermFile
	if err := json.Unmarshal(data, &f); err != nil {
		return TermFile{}, fmt.Errorf("parse term file %s: %w", path, err)
	}
	if err := Validate(f); err != nil {
		return TermFile{}, fmt.Errorf("term file %s: %w", path, err)
	}
	return f, nil
}
