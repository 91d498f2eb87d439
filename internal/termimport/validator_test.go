package termimport

import "testing"

func TestValidate_valid(t *testing.T) {
	f := TermFile{
		Source: "conservatory-glossary",
		Terms: []TermSpec{
			{Term: "allegro", Priority: 9},
			{Term: "col legno", Languages: []string{"en", "de"}},
			{Term: "fortissimo"},
		},
	}
	if err := Validate(f); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_noTerms(t *testing.T) {
	if err := Validate(TermFile{Source: "x"}); err == nil {
		t.Error("Validate() expected error for empty file")
	}
}

func TestValidate_emptyTerm(t *testing.T) {
	f := TermFile{Terms: []TermSpec{{Term: "   "}}}
	if err := Validate(f); err == nil {
		t.Error("Validate() expected error for blank term")
	}
}

func TestValidate_duplicateNormalizedTerm(t *testing.T) {
	f := TermFile{Terms: []TermSpec{
		{Term: "Allegro"},
		{Term: "  allegro "},
	}}
	if err := Validate(f); err == nil {
		t.Error("Validate() expected error for duplicate after normalization")
	}
}

func TestValidate_priorityOutOfRange(t *testing.T) {
	f := TermFile{Terms: []TermSpec{{Term: "adagio", Priority: 11}}}
	if err := Validate(f); err == nil {
		t.Error("Validate() expected error for priority 11")
	}
}

func TestValidate_badLanguageCode(t *testing.T) {
	f := TermFile{Terms: []TermSpec{{Term: "adagio", Languages: []string{"eng"}}}}
	if err := Validate(f); err == nil {
		t.Error("Validate() expected error for 3-letter language code")
	}
}
