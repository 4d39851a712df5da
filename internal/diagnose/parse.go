// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package diagnose

import (
	"errors"
	"regexp"
	"strings"

	"github.com/pdiddy/refcheck/pkg/types"
)

// errMalformedReply reports that the model's reply did not follow the
// labelled-field grammar. The caller switches to the regex path.
var errMalformedReply = errors.New("classifier reply does not match the labelled-field format")

// fieldResponse is a successfully parsed labelled-field model reply.
type fieldResponse struct {
	Tag         types.DiagnosisTag
	Chapter     string
	BookTitle   string
	Publisher   string
	Title       string
	Author      string
	Year        string
	URL         string
	SearchQuery string
}

// placeholders are model replies that mean "no value". The prompt asks
// for empty fields but models routinely answer with these instead,
// sometimes localized.
var placeholders = map[string]bool{
	"": true, "none": true, "n/a": true, "无": true, "空": true, "留空": true,
}

var (
	typeLine = regexp.MustCompile(`(?im)^TYPE:\s*([A-Z_]+)\s*$`)
	yearLine = regexp.MustCompile(`(?im)^YEAR:\s*(\d{4})`)
)

// parseResponse parses the labelled-field reply into its fields. The
// grammar is strict: a TYPE line carrying one of the known tags must be
// present, otherwise the whole reply is malformed and the second return
// is false. Other fields are optional; absent or placeholder values
// normalize to empty strings.
func parseResponse(content string) (fieldResponse, bool) {
	m := typeLine.FindStringSubmatch(content)
	if m == nil {
		return fieldResponse{}, false
	}
	tag := types.DiagnosisTag(strings.ToUpper(m[1]))
	if !validTag(tag) {
		return fieldResponse{}, false
	}

	f := fieldResponse{
		Tag:         tag,
		Chapter:     fieldValue(content, "CHAPTER"),
		BookTitle:   fieldValue(content, "BOOK_TITLE"),
		Publisher:   fieldValue(content, "PUBLISHER"),
		Author:      fieldValue(content, "AUTHOR"),
		SearchQuery: fieldValue(content, "SEARCH_QUERY"),
	}

	if y := yearLine.FindStringSubmatch(content); y != nil {
		f.Year = y[1]
	}

	if title := fieldValue(content, "TITLE"); title != "" {
		title = strings.Trim(title, "【】")
		title = strings.TrimRight(title, ".。")
		f.Title = title
	}

	if u := fieldValue(content, "URL"); u != "" {
		f.URL = strings.Trim(u, "<>")
	}

	return f, true
}

func validTag(tag types.DiagnosisTag) bool {
	for _, t := range types.ValidDiagnosisTags {
		if tag == t {
			return true
		}
	}
	return false
}

// fieldValue returns the value of "LABEL: value" on its own line, with
// surrounding quotes stripped and placeholders normalized to empty.
// TITLE deliberately does not match BOOK_TITLE thanks to the line anchor.
func fieldValue(content, label string) string {
	re := regexp.MustCompile(`(?im)^` + label + `:\s*(.+?)\s*$`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	v := strings.Trim(strings.TrimSpace(m[1]), `"'`)
	if placeholders[strings.ToLower(v)] {
		return ""
	}
	return v
}
