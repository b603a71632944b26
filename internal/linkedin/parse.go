// File: internal/linkedin/parse.go

package linkedin

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigitRe = regexp.MustCompile(`[^0-9]`)
	youAndRe   = regexp.MustCompile(`you and ([0-9,]+)`)
	firstNumRe = regexp.MustCompile(`[0-9][0-9,]*`)
)

// ParseCount strips everything but digits from a label and parses the rest.
// "1,204 comments" yields 1204; text with no digits yields 0.
func ParseCount(text string) int {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ParseLikeCount handles the reaction labels the feed renders for the
// logged-in viewer. "You and 12 others" counts the viewer, so it yields 13;
// "You reacted" alone yields 1; otherwise the first number in the label
// wins, and no number at all yields 0.
func ParseLikeCount(text string) int {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "you and") {
		if m := youAndRe.FindStringSubmatch(lowered); m != nil {
			return ParseCount(m[1]) + 1
		}
		return 1
	}
	if strings.Contains(lowered, "you reacted") {
		return 1
	}
	if m := firstNumRe.FindString(lowered); m != "" {
		return ParseCount(m)
	}
	return 0
}
