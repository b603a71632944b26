// File: internal/linkedin/parse_test.go

package linkedin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain number", "12", 12},
		{"thousands separator", "1,204 comments", 1204},
		{"label prefix", "Comments: 37", 37},
		{"no digits", "Be the first to comment", 0},
		{"empty", "", 0},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCount(tt.text))
		})
	}
}

func TestParseLikeCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"viewer and others", "You and 12 others reacted", 13},
		{"viewer and comma count", "You and 1,204 others", 1205},
		{"viewer alone", "You reacted to this post", 1},
		{"plain count", "12", 12},
		{"count with label", "87 reactions", 87},
		{"no reactions", "Like", 0},
		{"empty", "", 0},
		{"case insensitive", "YOU AND 3 OTHERS", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLikeCount(tt.text))
		})
	}
}
