// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestAuthorShortName(t *testing.T) {
	tests := []struct {
		name   string
		author Author
		want   string
	}{
		{"given name initialled", Author{Family: "Smith", Given: "John David"}, "Smith JD"},
		{"dotted initials", Author{Family: "Doe", Given: "J.D."}, "Doe JD"},
		{"hyphenated given", Author{Family: "Lee", Given: "Mei-Ling"}, "Lee ML"},
		{"family only", Author{Family: "Smith"}, "Smith"},
		{"no family name", Author{Given: "John"}, ""},
		{"accented initial", Author{Family: "Lindqvist", Given: "Åsa"}, "Lindqvist Å"},
		{"cyrillic initial", Author{Family: "Ivanov", Given: "Дмитрий"}, "Ivanov Д"},
		{"numeric part skipped", Author{Family: "Smith", Given: "John 3rd"}, "Smith J"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.author.ShortName(); got != tt.want {
				t.Errorf("ShortName() = %q, want %q", got, tt.want)
			}
		})
	}
}
