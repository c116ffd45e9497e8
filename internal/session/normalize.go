package session

import (
	"regexp"
	"strings"
)

var (
	boldRe     = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	italicRe   = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
	headingRe  = regexp.MustCompile(`(?m)^[ \t\f\v\r]*(?:#{1,6}[ \t\f\v\r]+)+`)
	listItemRe = regexp.MustCompile(`(?m)^[ \t\f\v\r]*[-*][ \t\f\v\r]+`)
	blankRunRe = regexp.MustCompile(`\n(?:[ \t\f\v\r]*\n){2,}`)
	newlineRe  = regexp.MustCompile(`\r+\n`)
)

const bullet = "• "

// Normalize turns a markdown-flavoured collaborator reply into the plain text shown in the chat:
// emphasis markers and line-leading heading markers are removed, list markers become bullets, runs of
// blank lines collapse into one and surrounding whitespace is trimmed.
//
// Single-star emphasis must hug its text, so "* item" list markers and "5 * 3" are left alone.
//
// Normalize is idempotent.
func Normalize(raw string) string {
	s := newlineRe.ReplaceAllString(raw, "\n")

	// Stripping one marker pair can expose another (e.g. "**a*b*c**"), so repeat until stable.
	for {
		next := italicRe.ReplaceAllString(boldRe.ReplaceAllString(s, "$1"), "$1")
		if next == s {
			break
		}
		s = next
	}

	s = headingRe.ReplaceAllString(s, "")
	s = listItemRe.ReplaceAllString(s, bullet)
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	return strings.Trim(s, " \t\n\f\v\r")
}
