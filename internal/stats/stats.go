// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats aggregates corpus-level statistics over a processed
// batch of references.
package stats

import "github.com/pdiddy/refcheck/pkg/types"

// Calculate summarizes a batch. totalRefs is the input length, which can
// exceed len(refs) when a run was interrupted; percentages are computed
// against it so partial runs report honest coverage. fuzzyPairs comes
// from the duplicate detector.
func Calculate(refs []*types.Reference, totalRefs, fuzzyPairs int) types.Statistics {
	s := types.Statistics{
		TotalReferences:     totalRefs,
		FuzzyDuplicatePairs: fuzzyPairs,
	}

	doiSeen := make(map[string]bool)
	for _, r := range refs {
		if r.IsRecent5 {
			s.Recent5++
		}
		if r.IsRecent3 {
			s.Recent3++
		}

		if r.APIDOI != "" {
			s.WithDOI++
			if doiSeen[r.APIDOI] {
				s.DuplicateRefs++
			}
			doiSeen[r.APIDOI] = true
		} else {
			s.WithoutDOI++
		}

		switch r.MatchStatus {
		case types.MatchOK:
			s.MatchedRefs++
		case types.MatchDOIMismatch:
			s.DOIMismatchCount++
		}

		if r.HasRetraction {
			s.RetractionCount++
		}
		if r.HasCorrection {
			s.CorrectionCount++
		}
	}

	if totalRefs > 0 {
		pct := func(n int) float64 { return float64(n) / float64(totalRefs) * 100 }
		s.MatchedRefsPct = pct(s.MatchedRefs)
		s.DuplicateRefsPct = pct(s.DuplicateRefs)
		s.Recent5Pct = pct(s.Recent5)
		s.Recent3Pct = pct(s.Recent3)
		s.CorrectionPct = pct(s.CorrectionCount)
		s.RetractionPct = pct(s.RetractionCount)
		s.WithDOIPct = pct(s.WithDOI)
		s.WithoutDOIPct = pct(s.WithoutDOI)
	}
	return s
}
