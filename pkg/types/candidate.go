// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Candidate is one unverified bibliographic record returned by an evidence
// client. It lives only long enough to be scored by the verifier and copied
// into the Reference it resolves.
type Candidate struct {
	DOI     string   `json:"doi"`
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`

	// JournalShort and JournalFull are the abbreviated and full venue names.
	JournalShort string `json:"journal_short"`
	JournalFull  string `json:"journal_full"`

	// Year is zero when the source supplied no issued date.
	Year int `json:"year"`

	Volume string `json:"volume"`
	Issue  string `json:"issue"`
	Page   string `json:"page"`

	// Correction and retraction cross-references the source knows about.
	HasCorrection bool   `json:"has_correction"`
	HasRetraction bool   `json:"has_retraction"`
	CorrectionDOI string `json:"correction_doi"`
	RetractionDOI string `json:"retraction_doi"`
}

// ShortNames returns the normalized "Family I" author names, skipping
// authors with no family name.
func (c *Candidate) ShortNames() []string {
	var names []string
	for _, a := range c.Authors {
		if n := a.ShortName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}
