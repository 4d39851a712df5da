// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dupes finds duplicate citations in a completed batch. Two
// whole-batch passes run after resolution: an exact pass over resolved
// DOIs and a fuzzy pass over normalized citation text. Both passes write
// symmetric peer lists so every member of a duplicate group names all
// the others.
package dupes

import (
	"regexp"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pdiddy/refcheck/pkg/types"
)

const (
	// fuzzyThreshold is exclusive: a pair must score strictly above it.
	fuzzyThreshold = 70

	// minKeyRunes guards against trivially short keys, which score high
	// against almost anything.
	minKeyRunes = 20
)

var (
	numberingOrURL = regexp.MustCompile(`^\d+\.?\s*|https?://\S+`)
	nonWord        = regexp.MustCompile(`[^\w\s]`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// CleanKey normalizes a citation string for fuzzy comparison: leading
// list numbering and URLs removed, lower-cased, punctuation stripped,
// whitespace collapsed.
func CleanKey(text string) string {
	s := numberingOrURL.ReplaceAllString(text, "")
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// MarkDOIDuplicates annotates every reference whose resolved DOI is
// shared with at least one other reference in the batch. Returns the
// number of references marked.
func MarkDOIDuplicates(refs []*types.Reference) int {
	groups := make(map[string][]int)
	for i, r := range refs {
		if r.APIDOI != "" {
			groups[r.APIDOI] = append(groups[r.APIDOI], i)
		}
	}

	marked := 0
	for i, r := range refs {
		group := groups[r.APIDOI]
		if r.APIDOI == "" || len(group) < 2 {
			r.IsDOIDuplicate = false
			r.DOIDuplicates = nil
			continue
		}
		r.IsDOIDuplicate = true
		marked++
		peers := make([]int, 0, len(group)-1)
		for _, j := range group {
			if j != i {
				peers = append(peers, j+1)
			}
		}
		r.DOIDuplicates = peers
	}
	return marked
}

// MarkFuzzyDuplicates clusters references whose normalized text scores
// above the threshold and annotates each cluster member with the 1-based
// positions of its peers. Clustering is greedy by pivot: each unclaimed
// reference collects every later unclaimed reference similar to it, and
// claimed references never start or join another cluster. Returns the
// number of clusters found.
func MarkFuzzyDuplicates(refs []*types.Reference) int {
	if len(refs) < 2 {
		return 0
	}

	keys := make([]string, len(refs))
	for i, r := range refs {
		if r.CleanedText != "" {
			keys[i] = r.CleanedText
		} else {
			keys[i] = CleanKey(r.OriginalText)
		}
	}

	claimed := make(map[int]bool)
	clusters := 0

	for i := range refs {
		if claimed[i] {
			continue
		}

		var members []int // 1-based positions of refs similar to i
		for j := i + 1; j < len(refs); j++ {
			if claimed[j] {
				continue
			}
			if utf8.RuneCountInString(keys[i]) < minKeyRunes || utf8.RuneCountInString(keys[j]) < minKeyRunes {
				continue
			}
			if fuzzy.TokenSortRatio(keys[i], keys[j]) > fuzzyThreshold {
				members = append(members, j+1)
				claimed[j] = true
			}
		}
		if len(members) == 0 {
			continue
		}

		clusters++
		claimed[i] = true

		refs[i].IsFuzzyDuplicate = true
		refs[i].FuzzyDuplicates = append([]int(nil), members...)

		for _, pos := range members {
			peers := []int{i + 1}
			for _, other := range members {
				if other != pos {
					peers = append(peers, other)
				}
			}
			r := refs[pos-1]
			r.IsFuzzyDuplicate = true
			r.FuzzyDuplicates = peers
		}
	}
	return clusters
}
