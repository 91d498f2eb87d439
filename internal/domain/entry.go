package domain

import (
	"time"

	"github.com/google/uuid"
)

// TermType represents the category of a musical term.
type TermType string

const (
	TermTypeTempo        TermType = "TEMPO"
	TermTypeDynamics     TermType = "DYNAMICS"
	TermTypeArticulation TermType = "ARTICULATION"
	TermTypeExpression   TermType = "EXPRESSION"
	TermTypeForm         TermType = "FORM"
	TermTypeTechnique    TermType = "TECHNIQUE"
	TermTypeGeneral      TermType = "GENERAL"
)

func (t TermType) String() string { return string(t) }

func (t TermType) IsValid() bool {
	switch t {
	case TermTypeTempo, TermTypeDynamics, TermTypeArticulation,
		TermTypeExpression, TermTypeForm, TermTypeTechnique, TermTypeGeneral:
		return true
	}
	return false
}

// Entry is a published dictionary entry for a musical term in one language.
// The (term_normalized, lang) pair is unique among published entries.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	Term           string    `json:"term"`
	TermNormalized string    `json:"term_normalized"`
	Lang           string    `json:"lang"`
	Type           TermType  `json:"type"`
	Definition     string    `json:"definition"`
	Etymology      *string   `json:"etymology,omitempty"`
	Examples       []string  `json:"examples,omitempty"`
	Translations   []string  `json:"translations,omitempty"`
	SourceSlug     string    `json:"source_slug"`
	QualityScore   int       `json:"quality_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CandidateEntry is a generated, not-yet-published entry together with
// the token cost of producing it. The quality self-assessment lives on
// the embedded Entry.
type CandidateEntry struct {
	Entry      Entry
	TokensUsed int
}

// EntryModifications carries optional reviewer edits applied on approval.
// nil fields are left untouched. Only content fields may be modified;
// identity fields (term, lang) are fixed at generation time.
type EntryModifications struct {
	Definition   *string  `json:"definition,omitempty"`
	Etymology    *string  `json:"etymology,omitempty"`
	Examples     []string `json:"examples,omitempty"`
	Translations []string `json:"translations,omitempty"`
}

// ApplyModifications overwrites entry fields with reviewer-supplied edits.
func (e *Entry) ApplyModifications(mods EntryModifications) {
	if mods.Definition != nil {
		e.Definition = *mods.Definition
	}
	if mods.Etymology != nil {
		e.Etymology = mods.Etymology
	}
	if mods.Examples != nil {
		e.Examples = mods.Examples
	}
	if mods.Translations != nil {
		e.Translations = mods.Translations
	}
}
