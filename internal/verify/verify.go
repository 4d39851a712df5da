// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify decides whether a Crossref candidate actually describes
// the reference it was retrieved for. The candidate is rendered as an
// APA-style citation and compared against the original text with
// token-sort fuzzy matching, so author order and field order differences
// do not depress the score.
package verify

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pdiddy/refcheck/pkg/types"
)

// MatchThreshold is the minimum token-sort similarity for a candidate to
// count as a confirmed match. Citation style variations typically score
// in the 70s against a clean APA rendering; unrelated records fall well
// below 60.
const MatchThreshold = 60

// Source says how a candidate was obtained, which changes what a low
// score means. A DOI lookup is anchored by an identifier present in the
// citation, so a mismatch is evidence worth keeping. A bibliographic
// search hit with a low score is just a bad search result.
type Source int

const (
	SourceDOI Source = iota
	SourceSearch
)

// Result is the verification outcome for one candidate.
type Result struct {
	Status    types.MatchStatus
	Formatted string
	Score     int
	// Keep reports whether the candidate's metadata should be retained
	// on the reference. Low-similarity search hits are discarded.
	Keep bool
}

// Against scores a candidate against the original citation text and
// assigns the match status.
func Against(original string, cand *types.Candidate, source Source) Result {
	formatted := FormatAPA(cand)
	score := Score(original, formatted)

	r := Result{Formatted: formatted, Score: score}
	switch {
	case score >= MatchThreshold:
		r.Status = types.MatchOK
		r.Keep = true
	case source == SourceDOI:
		r.Status = types.MatchDOIMismatch
		r.Keep = true
	default:
		r.Status = types.MatchNone
		r.Keep = false
	}
	return r
}

// Score returns the token-sort similarity of two citation strings on a
// 0-100 scale.
func Score(original, formatted string) int {
	return fuzzy.TokenSortRatio(original, formatted)
}

// FormatAPA renders a candidate as an APA-style citation string:
//
//	Smith, J. D., & Doe, A. (2020). Title. Journal. *12*(3), 45-67. https://doi.org/10.1/x
//
// Absent fields are skipped rather than rendered empty.
func FormatAPA(cand *types.Candidate) string {
	var parts []string

	if authors := FormatAuthors(cand.Authors); authors != "" {
		parts = append(parts, authors+".")
	}
	if cand.Year != 0 {
		parts = append(parts, fmt.Sprintf("(%d).", cand.Year))
	}
	if cand.Title != "" {
		parts = append(parts, strings.TrimRight(cand.Title, ". ")+".")
	}
	if cand.JournalFull != "" {
		parts = append(parts, cand.JournalFull+".")
	}
	if cand.Volume != "" {
		vi := "*" + cand.Volume + "*"
		if cand.Issue != "" {
			vi += "(" + cand.Issue + ")"
		}
		parts = append(parts, vi+",")
	}
	if cand.Page != "" {
		parts = append(parts, cand.Page+".")
	}
	if cand.DOI != "" {
		parts = append(parts, "https://doi.org/"+cand.DOI)
	}
	return strings.Join(parts, " ")
}

// FormatAuthors renders up to six authors in APA order with initialled
// given names, joined with an ampersand before the final name.
func FormatAuthors(authors []types.Author) string {
	if len(authors) == 0 {
		return ""
	}
	if len(authors) > 6 {
		authors = authors[:6]
	}

	var names []string
	for _, a := range authors {
		switch {
		case a.Family != "" && a.Given != "":
			names = append(names, a.Family+", "+initials(a.Given))
		case a.Family != "":
			names = append(names, a.Family)
		case a.Given != "":
			names = append(names, initials(a.Given))
		}
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", & " + names[len(names)-1]
	}
}

// initials turns "John David" into "J. D.".
func initials(given string) string {
	var out []string
	for _, part := range strings.Fields(given) {
		r := []rune(part)
		out = append(out, strings.ToUpper(string(r[0]))+".")
	}
	return strings.Join(out, " ")
}
