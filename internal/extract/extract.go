// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls normalized identifiers and fallback author lists
// out of free-text citation strings. Pure functions, no side effects; a
// citation that matches no grammar simply yields nothing.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// doiPatterns lists the accepted DOI grammars, tried in order: bare,
// resolver-prefixed, URL-prefixed, and labelled. The first match wins.
var doiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)10\.\d{4,}/[-._;()/:\w]+`),
	regexp.MustCompile(`(?i)doi\.org/(10\.\d{4,}/[-._;()/:\w]+)`),
	regexp.MustCompile(`(?i)https?://doi\.org/(10\.\d{4,}/[-._;()/:\w]+)`),
	regexp.MustCompile(`(?i)doi:\s*(10\.\d{4,}/[-._;()/:\w]+)`),
}

var (
	// doiStrict validates a candidate after normalization.
	doiStrict = regexp.MustCompile(`^10\.\d{4,}/[-._;()/:\w]+$`)

	trailingPunct = regexp.MustCompile(`[.,;:!?]+$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// DOI returns the first DOI found in text, normalized: resolver prefix
// stripped, trailing punctuation trimmed, internal whitespace removed.
// Returns "" when no grammar matches.
func DOI(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range doiPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		doi := m[0]
		if len(m) > 1 {
			doi = m[1]
		}
		doi = strings.TrimPrefix(doi, "doi.org/")
		doi = trailingPunct.ReplaceAllString(doi, "")
		doi = whitespace.ReplaceAllString(doi, "")
		if doiStrict.MatchString(doi) {
			return doi
		}
	}
	return ""
}

// NormalizeDOI cleans a DOI that arrived already labelled or URL-formed,
// e.g. typed by a user rather than found in citation text.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if strings.HasPrefix(doi, "http") {
		if _, rest, ok := strings.Cut(doi, "doi.org/"); ok {
			doi = rest
		}
	}
	doi = trailingPunct.ReplaceAllString(doi, "")
	return whitespace.ReplaceAllString(doi, "")
}

var (
	yearMarker  = regexp.MustCompile(`\(?\d{4}\)?`)
	authorSplit = regexp.MustCompile(`[,;]\s*`)
)

// FallbackAuthors extracts author-like fragments from the text preceding
// the first 4-digit year. This is the heuristic for citations no database
// resolved: the head of the string is split on commas and semicolons, and
// anything short or digit-bearing is dropped.
func FallbackAuthors(text string) []string {
	loc := yearMarker.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	head := strings.TrimSpace(text[:loc[0]])

	var authors []string
	for _, part := range authorSplit.Split(head, -1) {
		part = strings.TrimSpace(part)
		if len(part) > 2 && !strings.ContainsFunc(part, unicode.IsDigit) {
			authors = append(authors, part)
		}
	}
	return authors
}
