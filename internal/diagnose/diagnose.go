// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diagnose classifies references that no bibliographic database
// could resolve. The primary path asks a generative model for a typed
// classification plus extracted search hints; when the model is
// unavailable or its reply does not parse, a regex heuristic path takes
// over. The two paths are kept separate: the parser is strict and never
// patched with regex guesses.
package diagnose

import (
	"context"
	"regexp"
	"strings"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Backend abstracts the generative classification service so tests can
// supply a canned reply.
type Backend interface {
	Classify(ctx context.Context, citation string) (string, error)
}

// Diagnosis is the fallback classification for one unresolved reference.
type Diagnosis struct {
	Tag         types.DiagnosisTag
	Title       string
	URL         string
	SearchQuery string
}

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s<>"']+`)
	bookMarkers = regexp.MustCompile(`(?i)\b(Eds?\.|Pp\.|Vol\.|ISBN\b)`)
	confMarkers = regexp.MustCompile(`(?i)\b(Proc\.|Publisher\b|Conference\b|Symposium\b|Workshop\b)`)
)

// Run classifies one citation. The returned Diagnosis is always usable;
// a non-nil error explains why the regex fallback was used (transport
// failure or a malformed model reply) so the caller can log it. A nil
// backend selects the fallback silently.
func Run(ctx context.Context, backend Backend, citation string) (Diagnosis, error) {
	var degraded error

	var fields fieldResponse
	parsed := false
	if backend != nil {
		content, err := backend.Classify(ctx, citation)
		if err != nil {
			degraded = err
		} else {
			fields, parsed = parseResponse(content)
			if !parsed {
				degraded = errMalformedReply
			}
		}
	}

	var d Diagnosis
	if parsed {
		d = fromFields(fields)
	} else {
		d = regexDiagnose(citation)
	}

	// A URL in the original text is worth surfacing even when the model
	// missed it or tagged the reference as something other than WEBSITE.
	if d.URL == "" {
		d.URL = ExtractURL(citation)
	}
	if d.SearchQuery == "" && d.Title != "" {
		d.SearchQuery = BuildSearchQuery(d.Tag, d.Title, "", "", "", fields.Author, fields.Year)
	}
	return d, degraded
}

// fromFields converts a parsed model reply into a Diagnosis. For books
// the chapter title is the most searchable string, then the book title.
func fromFields(f fieldResponse) Diagnosis {
	d := Diagnosis{
		Tag:         f.Tag,
		Title:       f.Title,
		URL:         f.URL,
		SearchQuery: f.SearchQuery,
	}
	if f.Tag == types.DiagnosisBook {
		switch {
		case f.Chapter != "":
			d.Title = f.Chapter
		case f.BookTitle != "":
			d.Title = f.BookTitle
		}
	}
	if d.SearchQuery == "" {
		d.SearchQuery = BuildSearchQuery(f.Tag, d.Title, f.Chapter, f.BookTitle, f.Publisher, f.Author, f.Year)
	}
	return d
}

// regexDiagnose is the degraded classification path: keyword markers for
// books and conference material, URL presence for websites.
func regexDiagnose(citation string) Diagnosis {
	d := Diagnosis{Tag: types.DiagnosisUnknown}
	switch {
	case bookMarkers.MatchString(citation):
		d.Tag = types.DiagnosisBook
	case confMarkers.MatchString(citation):
		d.Tag = types.DiagnosisConf
	case urlPattern.MatchString(citation):
		d.Tag = types.DiagnosisWebsite
	}
	return d
}

// ExtractURL pulls the first URL out of a citation, with trailing
// punctuation stripped.
func ExtractURL(text string) string {
	m := urlPattern.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimRight(m, ".,;:)")
}

// BuildSearchQuery synthesizes a scholar search query from extracted
// fields. Titles are quoted as exact phrases; short titles (< 5 words)
// and book references get the author surname and year appended because
// the phrase alone is too generic to disambiguate.
func BuildSearchQuery(tag types.DiagnosisTag, title, chapter, bookTitle, publisher, author, year string) string {
	var parts []string

	if tag == types.DiagnosisBook {
		if chapter != "" {
			parts = append(parts, `"`+chapter+`"`)
		}
		if bookTitle != "" {
			parts = append(parts, `"`+bookTitle+`"`)
		}
		if publisher != "" {
			parts = append(parts, publisher)
		}
	} else if title != "" {
		parts = append(parts, `"`+title+`"`)
	}

	anchor := title
	if chapter != "" {
		anchor = chapter
	} else if bookTitle != "" {
		anchor = bookTitle
	}
	short := len(strings.Fields(anchor)) < 5

	if author != "" && (short || tag == types.DiagnosisBook) {
		parts = append(parts, author)
	}
	if year != "" && (short || tag == types.DiagnosisBook) {
		parts = append(parts, year)
	}
	return strings.Join(parts, " ")
}
