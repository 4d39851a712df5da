// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"testing"

	"github.com/pdiddy/refcheck/pkg/types"
)

func fullCandidate() *types.Candidate {
	return &types.Candidate{
		DOI:   "10.1234/xyz",
		Title: "Deep learning for citation matching.",
		Authors: []types.Author{
			{Family: "Smith", Given: "John David"},
			{Family: "Doe", Given: "Anna"},
		},
		JournalFull: "Journal of Bibliometrics",
		Year:        2020,
		Volume:      "12",
		Issue:       "3",
		Page:        "45-67",
	}
}

func TestFormatAPA(t *testing.T) {
	got := FormatAPA(fullCandidate())
	want := "Smith, J. D. & Doe, A.. (2020). Deep learning for citation matching. " +
		"Journal of Bibliometrics. *12*(3), 45-67. https://doi.org/10.1234/xyz"
	if got != want {
		t.Errorf("FormatAPA =\n  %q\nwant\n  %q", got, want)
	}
}

func TestFormatAPASparse(t *testing.T) {
	cand := &types.Candidate{Title: "Orphan record", DOI: "10.9/sparse"}
	got := FormatAPA(cand)
	want := "Orphan record. https://doi.org/10.9/sparse"
	if got != want {
		t.Errorf("FormatAPA = %q, want %q", got, want)
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name    string
		authors []types.Author
		want    string
	}{
		{"none", nil, ""},
		{"single", []types.Author{{Family: "Smith", Given: "John"}}, "Smith, J."},
		{"family only", []types.Author{{Family: "Smith"}}, "Smith"},
		{"given only", []types.Author{{Given: "Jo Anne"}}, "J. A."},
		{
			"pair",
			[]types.Author{{Family: "Smith", Given: "John"}, {Family: "Doe", Given: "Anna"}},
			"Smith, J. & Doe, A.",
		},
		{
			"three uses serial ampersand",
			[]types.Author{{Family: "A", Given: "X"}, {Family: "B", Given: "Y"}, {Family: "C", Given: "Z"}},
			"A, X., B, Y., & C, Z.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAuthors(tt.authors); got != tt.want {
				t.Errorf("FormatAuthors = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAuthorsTruncatesAtSix(t *testing.T) {
	authors := make([]types.Author, 9)
	for i := range authors {
		authors[i] = types.Author{Family: string(rune('A' + i)), Given: "Q"}
	}
	got := FormatAuthors(authors)
	want := "A, Q., B, Q., C, Q., D, Q., E, Q., & F, Q."
	if got != want {
		t.Errorf("FormatAuthors = %q, want %q", got, want)
	}
}

func TestScoreIgnoresTokenOrder(t *testing.T) {
	a := "Smith J, Doe A. Deep learning for citation matching. 2020"
	b := "Doe A, Smith J. 2020. Deep learning for citation matching."
	if got := Score(a, b); got < 95 {
		t.Errorf("Score = %d, want near 100 for reordered tokens", got)
	}
}

func TestScoreIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Smith, J. D. (2020). Deep learning for citation matching.", "Deep learning citation matching Smith 2020"},
		{"Garcia, P. (1998). Soil chemistry of wetlands.", "Smith, J. D. (2020). Deep learning for citation matching."},
		{"aaaaaaaaaaaabbbbbbbb", "aaaaaaaaaaaacccccccc"},
	}
	for _, p := range pairs {
		if ab, ba := Score(p[0], p[1]), Score(p[1], p[0]); ab != ba {
			t.Errorf("Score(%q, %q) = %d but reversed = %d", p[0], p[1], ab, ba)
		}
	}
}

// Boundary fixtures with exactly computable similarity: two 20-char
// single-token strings sharing an n-char prefix (and nothing else) score
// round(200n/40), so 12 shared chars sit exactly on the threshold and 11
// sit just under it.
func TestAgainstThresholdBoundary(t *testing.T) {
	cand := &types.Candidate{Title: "aaaaaaaaaaaacccccccc"}

	atCut := "aaaaaaaaaaaabbbbbbbb" // 12 shared: scores 60
	below := "aaaaaaaaaaabbbbbbbbb" // 11 shared: scores 55

	if got := Score(atCut, FormatAPA(cand)); got != MatchThreshold {
		t.Fatalf("fixture score = %d, want %d", got, MatchThreshold)
	}
	if got := Score(below, FormatAPA(cand)); got != 55 {
		t.Fatalf("fixture score = %d, want 55", got)
	}

	tests := []struct {
		name       string
		original   string
		source     Source
		wantStatus types.MatchStatus
		wantKeep   bool
	}{
		{"exactly at threshold accepted", atCut, SourceSearch, types.MatchOK, true},
		{"just below threshold discarded", below, SourceSearch, types.MatchNone, false},
		{"just below threshold doi retained", below, SourceDOI, types.MatchDOIMismatch, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Against(tt.original, cand, tt.source)
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q (score %d), want %q", r.Status, r.Score, tt.wantStatus)
			}
			if r.Keep != tt.wantKeep {
				t.Errorf("Keep = %v, want %v", r.Keep, tt.wantKeep)
			}
		})
	}
}

func TestAgainst(t *testing.T) {
	cand := fullCandidate()
	matching := "Smith, J. D. & Doe, A. (2020). Deep learning for citation matching. Journal of Bibliometrics, 12(3), 45-67."
	unrelated := "Garcia, P. (1998). Soil chemistry of wetlands. Ecology Letters, 4, 1-9."

	tests := []struct {
		name       string
		original   string
		source     Source
		wantStatus types.MatchStatus
		wantKeep   bool
	}{
		{"doi lookup match", matching, SourceDOI, types.MatchOK, true},
		{"search match", matching, SourceSearch, types.MatchOK, true},
		{"doi lookup mismatch retained", unrelated, SourceDOI, types.MatchDOIMismatch, true},
		{"search miss discarded", unrelated, SourceSearch, types.MatchNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Against(tt.original, cand, tt.source)
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q (score %d), want %q", r.Status, r.Score, tt.wantStatus)
			}
			if r.Keep != tt.wantKeep {
				t.Errorf("Keep = %v, want %v", r.Keep, tt.wantKeep)
			}
			if r.Formatted == "" {
				t.Error("Formatted is empty")
			}
		})
	}
}
