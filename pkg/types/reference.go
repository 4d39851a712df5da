// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refcheck pipeline:
// the per-citation Reference record, the evidence Candidate, batch
// Statistics, and stage configuration.
package types

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchStatus is the pipeline's confidence classification for a resolved
// reference. The wire values match the original report format.
type MatchStatus string

const (
	// MatchNone means no evidence candidate was accepted.
	MatchNone MatchStatus = "None"

	// MatchOK means a candidate was accepted with similarity >= 60.
	MatchOK MatchStatus = "match"

	// MatchDOIMismatch means a DOI lookup succeeded but the reconstructed
	// citation scored below 60 against the original text. The DOI is
	// trusted; the record is surfaced for human review, not discarded.
	MatchDOIMismatch MatchStatus = "doi_mismatch"
)

// DiagnosisTag classifies a reference that no database could resolve.
type DiagnosisTag string

const (
	DiagnosisBook     DiagnosisTag = "BOOK"
	DiagnosisConf     DiagnosisTag = "CONF"
	DiagnosisPreprint DiagnosisTag = "PREPRINT"
	DiagnosisWebsite  DiagnosisTag = "WEBSITE"
	DiagnosisPatent   DiagnosisTag = "PATENT"
	DiagnosisHighRisk DiagnosisTag = "HIGH_RISK"
	DiagnosisUnknown  DiagnosisTag = "UNKNOWN"
)

// ValidDiagnosisTags lists the closed vocabulary a classifier response may
// carry. UNKNOWN is the zero verdict, not a response value.
var ValidDiagnosisTags = []DiagnosisTag{
	DiagnosisBook, DiagnosisConf, DiagnosisPreprint,
	DiagnosisWebsite, DiagnosisPatent, DiagnosisHighRisk,
}

// Author is one author of a cited work.
type Author struct {
	Family string `json:"family" yaml:"family"`
	Given  string `json:"given" yaml:"given"`
}

// DisplayName returns "Family Given", tolerating either part being empty.
func (a Author) DisplayName() string {
	return strings.TrimSpace(a.Family + " " + a.Given)
}

// ShortName returns the "Family I" form used by the author frequency
// counter: the family name followed by the upper-cased initials of each
// given-name part (e.g. "Smith JD"). Empty when there is no family name.
func (a Author) ShortName() string {
	family := strings.TrimSpace(a.Family)
	if family == "" {
		return ""
	}
	var initials strings.Builder
	for _, part := range strings.FieldsFunc(a.Given, func(r rune) bool {
		return r == ' ' || r == '.' || r == '-' || r == '\t'
	}) {
		r, _ := utf8.DecodeRuneInString(part)
		if unicode.IsLetter(r) {
			initials.WriteRune(unicode.ToUpper(r))
		}
	}
	if initials.Len() == 0 {
		return family
	}
	return family + " " + initials.String()
}

// Reference is the result record for one input citation string. JSON field
// names match the original report cache so downstream renderers keep working.
type Reference struct {
	// OriginalText is the citation string exactly as supplied.
	OriginalText string `json:"original_text"`

	// ExtractedDOI is the DOI pulled out of OriginalText, if any.
	ExtractedDOI string `json:"extracted_doi"`

	// APIDOI is the DOI confirmed by an evidence lookup. It is set together
	// with MatchStatus and never without it.
	APIDOI string `json:"api_doi"`

	MatchStatus   MatchStatus `json:"match_status"`
	HasRetraction bool        `json:"has_retraction"`
	HasCorrection bool        `json:"has_correction"`

	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    string `json:"year"`

	// AllAuthors holds normalized "Family I" names, in citation order.
	AllAuthors []string `json:"all_authors"`

	// PMID and PMCID are the PubMed-family identifiers, when the work is
	// indexed there.
	PMID  string `json:"pmid"`
	PMCID string `json:"pmcid"`

	IsRecent5 bool `json:"is_recent_5_years"`
	IsRecent3 bool `json:"is_recent_3_years"`

	// Classifier fallback output. Empty unless both database lookups failed.
	Diagnosis      DiagnosisTag `json:"ai_diagnosis"`
	DiagnosedTitle string       `json:"ai_extracted_title"`
	DiagnosedURL   string       `json:"ai_extracted_url"`
	SearchQuery    string       `json:"ai_search_query"`

	// MatchedRef is the APA-style reconstruction the verifier scored, or
	// "Not Found" when no candidate was accepted.
	MatchedRef string `json:"matched_ref"`

	// Duplicate annotations, filled by the whole-batch detector. Peer lists
	// hold 1-based positions and are symmetric across a duplicate group.
	IsDOIDuplicate   bool  `json:"is_doi_duplicate"`
	DOIDuplicates    []int `json:"doi_duplicate_refs,omitempty"`
	IsFuzzyDuplicate bool  `json:"is_fuzzy_duplicate"`
	FuzzyDuplicates  []int `json:"fuzzy_duplicate_refs,omitempty"`

	// CleanedText is the normalized key used only for fuzzy duplicate
	// comparison. Discarded before persistence.
	CleanedText string `json:"-"`
}
