package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	combiningMarks = regexp.MustCompile(`[\x{0300}-\x{036F}]`)
	// XMLParser -> XML Parser, leftDetail -> left Detail
	innerWord = regexp.MustCompile(`([A-Z]*)([A-Z]{1})([a-z]+)`)
	// parseXML -> parse XML
	trailingCaps = regexp.MustCompile(`([A-Z]+)$`)
	whitespace   = regexp.MustCompile(`\s+`)
	nonWord      = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	hyphenRuns   = regexp.MustCompile(`--+`)
)

// GenerateSlug folds a loosely written name into lowercase hyphenated form.
// Cell kind names and class names go through it, so "leftDetail",
// "left_detail" and "Left Detail" all become "left-detail".
func GenerateSlug(title string) string {
	// NFKD splits accented letters so the marks can be dropped: é -> e
	slug := norm.NFKD.String(title)
	slug = combiningMarks.ReplaceAllString(slug, "")

	slug = innerWord.ReplaceAllString(slug, " $1 $2$3")
	slug = trailingCaps.ReplaceAllString(slug, " $1")

	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = whitespace.ReplaceAllString(slug, "-")
	slug = nonWord.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}
