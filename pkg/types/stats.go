// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Statistics is the corpus-level summary computed over a batch of
// references. Percentages are only populated when TotalReferences > 0.
type Statistics struct {
	TotalReferences int `json:"total_references"`

	Recent5 int `json:"recent_5_years"`
	Recent3 int `json:"recent_3_years"`

	WithDOI    int `json:"with_doi"`
	WithoutDOI int `json:"without_doi"`

	// DuplicateRefs counts references whose resolved DOI was already seen
	// earlier in the batch (the second and later members of each group).
	DuplicateRefs int `json:"duplicate_refs"`

	MatchedRefs      int `json:"matched_refs"`
	DOIMismatchCount int `json:"doi_mismatch_count"`

	CorrectionCount int `json:"correction_count"`
	RetractionCount int `json:"retraction_count"`

	// FuzzyDuplicatePairs is the number of records that initiated at least
	// one new fuzzy-duplicate cluster.
	FuzzyDuplicatePairs int `json:"fuzzy_duplicate_pairs"`

	MatchedRefsPct   float64 `json:"matched_refs_pct,omitempty"`
	DuplicateRefsPct float64 `json:"duplicate_refs_pct,omitempty"`
	Recent5Pct       float64 `json:"recent_5_years_pct,omitempty"`
	Recent3Pct       float64 `json:"recent_3_years_pct,omitempty"`
	CorrectionPct    float64 `json:"correction_pct,omitempty"`
	RetractionPct    float64 `json:"retraction_pct,omitempty"`
	WithDOIPct       float64 `json:"with_doi_pct,omitempty"`
	WithoutDOIPct    float64 `json:"without_doi_pct,omitempty"`
}

// BatchResult is the ordered set of processed references plus their
// statistics: the unit of work one run produces and the store persists.
type BatchResult struct {
	Statistics Statistics  `json:"statistics"`
	Results    []Reference `json:"results"`
}
