package termimport

// TermFile is the JSON document consumed by the term importer.
// Example:
//
//	{
//	  "source": "conservatory-glossary",
//	  "terms": [
//	    {"term": "allegro", "priority": 9},
//	    {"term": "col legno", "languages": ["en", "de"]}
//	  ]
//	}
type TermFile struct {
	Source string     `json:"source,omitempty"`
	Terms  []TermSpec `json:"terms"`
}

// TermSpec is one term in the file. Priority and languages fall back to
// the importer defaults when omitted.
type TermSpec struct {
	Term      string   `json:"term"`
	Priority  int      `json:"priority,omitempty"`
	Languages []string `json:"languages,omitempty"`
}
