// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"reflect"
	"testing"
)

func TestDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		// Bare pattern embedded in citation text.
		{"bare doi", "Smith J (2020) Title X. Journal Y. 10.1234/xyz", "10.1234/xyz"},
		{"bare doi trailing period", "See 10.1234/abc.def.", "10.1234/abc.def"},
		{"bare doi trailing punctuation run", "10.1016/j.cell.2019.01.001;,", "10.1016/j.cell.2019.01.001"},

		// URL-prefixed forms.
		{"https resolver", "Available at https://doi.org/10.1093/nar/gky1131", "10.1093/nar/gky1131"},
		{"http resolver", "http://doi.org/10.5555/12345678", "10.5555/12345678"},
		{"resolver no scheme", "doi.org/10.1101/2020.03.12.988865", "10.1101/2020.03.12.988865"},

		// Labelled forms, case-insensitive.
		{"upper label", "DOI: 10.1021/acs.jpcb.9b08383", "10.1021/acs.jpcb.9b08383"},
		{"lower label", "doi:10.3390/ijms21010348", "10.3390/ijms21010348"},

		// Negative cases.
		{"no doi", "Brown M (2022). Another research paper. Science Today.", ""},
		{"registrant too short", "10.99/short", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOI(tt.text); got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "10.1234/xyz", "10.1234/xyz"},
		{"full url", "https://doi.org/10.1234/xyz", "10.1234/xyz"},
		{"trailing punctuation", "10.1234/xyz.,", "10.1234/xyz"},
		{"internal whitespace", "10.1234/ xyz", "10.1234/xyz"},
		{"surrounding whitespace", "  10.1234/xyz  ", "10.1234/xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.in); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFallbackAuthors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"authors before parenthesized year",
			"Smith, J., Doe, A. (2020) Some title. Journal.",
			[]string{"Smith", "Doe"},
		},
		{
			"semicolon separated",
			"Garcia M; Chen L; Patel R 2019. Title here.",
			[]string{"Garcia M", "Chen L", "Patel R"},
		},
		{
			"digit-bearing fragments dropped",
			"Vol 3, Smith, J. (2021) Title.",
			[]string{"Smith"},
		},
		{"no year means no split point", "Smith J. Some title without a year.", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackAuthors(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FallbackAuthors(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
