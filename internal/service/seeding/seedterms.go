package seeding

import "github.com/pezware/mirubato-sub004/internal/domain"

// SeedTerm is one curated bootstrap term. Priority reflects how commonly the
// term appears in student-facing scores: 9-10 for staples every beginner
// meets, 5-6 for conservatory-level vocabulary.
type SeedTerm struct {
	Term     string
	Type     domain.TermType
	Priority int
}

// curatedSeedTerms is the bootstrap catalogue for an empty dictionary.
var curatedSeedTerms = []SeedTerm{
	// Tempo
	{"allegro", domain.TermTypeTempo, 10},
	{"adagio", domain.TermTypeTempo, 10},
	{"andante", domain.TermTypeTempo, 10},
	{"moderato", domain.TermTypeTempo, 9},
	{"presto", domain.TermTypeTempo, 9},
	{"largo", domain.TermTypeTempo, 9},
	{"vivace", domain.TermTypeTempo, 8},
	{"lento", domain.TermTypeTempo, 8},
	{"grave", domain.TermTypeTempo, 7},
	{"allegretto", domain.TermTypeTempo, 7},
	{"ritardando", domain.TermTypeTempo, 8},
	{"accelerando", domain.TermTypeTempo, 8},
	{"rubato", domain.TermTypeTempo, 7},
	{"a tempo", domain.TermTypeTempo, 7},

	// Dynamics
	{"forte", domain.TermTypeDynamics, 10},
	{"piano", domain.TermTypeDynamics, 10},
	{"fortissimo", domain.TermTypeDynamics, 9},
	{"pianissimo", domain.TermTypeDynamics, 9},
	{"mezzo forte", domain.TermTypeDynamics, 8},
	{"mezzo piano", domain.TermTypeDynamics, 8},
	{"crescendo", domain.TermTypeDynamics, 10},
	{"diminuendo", domain.TermTypeDynamics, 9},
	{"sforzando", domain.TermTypeDynamics, 7},

	// Articulation
	{"staccato", domain.TermTypeArticulation, 10},
	{"legato", domain.TermTypeArticulation, 10},
	{"tenuto", domain.TermTypeArticulation, 8},
	{"marcato", domain.TermTypeArticulation, 7},
	{"portato", domain.TermTypeArticulation, 5},
	{"fermata", domain.TermTypeArticulation, 8},

	// Expression
	{"dolce", domain.TermTypeExpression, 8},
	{"cantabile", domain.TermTypeExpression, 7},
	{"espressivo", domain.TermTypeExpression, 7},
	{"animato", domain.TermTypeExpression, 6},
	{"con brio", domain.TermTypeExpression, 6},
	{"maestoso", domain.TermTypeExpression, 6},
	{"agitato", domain.TermTypeExpression, 5},

	// Form
	{"sonata", domain.TermTypeForm, 8},
	{"fugue", domain.TermTypeForm, 7},
	{"nocturne", domain.TermTypeForm, 7},
	{"etude", domain.TermTypeForm, 7},
	{"rondo", domain.TermTypeForm, 6},
	{"coda", domain.TermTypeForm, 8},
	{"da capo", domain.TermTypeForm, 7},
	{"ostinato", domain.TermTypeForm, 5},

	// Technique
	{"pizzicato", domain.TermTypeTechnique, 8},
	{"arco", domain.TermTypeTechnique, 7},
	{"tremolo", domain.TermTypeTechnique, 6},
	{"vibrato", domain.TermTypeTechnique, 7},
	{"glissando", domain.TermTypeTechnique, 6},
	{"arpeggio", domain.TermTypeTechnique, 8},
	{"trill", domain.TermTypeTechnique, 7},
}
