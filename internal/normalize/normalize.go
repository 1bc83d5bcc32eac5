// Package normalize cleans raw Spotify track titles into the form printed on cards and sent to MusicBrainz.
package normalize

import (
	"regexp"
	"strings"
)

// sep matches an optional separator in front of an annotation: dash, colon, en-dash or em-dash.
const sep = `\s*[-:–—]?\s*`

// Applied in order. Each one removes every match, not only the first.
var annotationPatterns = []*regexp.Regexp{
	// "- Remastered 2011", "- 2011 Remaster", ": Re-Mastered Version"
	regexp.MustCompile(`(?i)` + sep + `(?:\d{4}\s*)?\bre-?master(?:ed)?\b(?:\s*\d{4})?(?:\s*\bversion\b(?:\s*\d{4})?)?`),
	// "- Version 1999", "- Single Version" leaves "Single". Only at the end of the title.
	regexp.MustCompile(`(?i)` + sep + `\bversion\b(?:\s*\d{4})?\s*$`),
	// "- Stereo" anywhere, a bare "Stereo" only at the end
	regexp.MustCompile(`(?i)\s*[-:–—]\s*\bstereo\b|\s+stereo\s*$`),
	// "(Live)", "(feat. X)"
	regexp.MustCompile(`\(.*?\)`),
	// "[Bonus Track]"
	regexp.MustCompile(`\[.*?\]`),
}

var (
	whitespace        = regexp.MustCompile(`\s+`)
	danglingSeparator = regexp.MustCompile(`[\s\-:–—]+$`)
)

// Title strips remaster, version and stereo annotations plus any parenthesized or
// bracketed suffix from raw, then collapses whitespace.
//
// Every input is valid and the result may be empty. The rules are repeated until the title
// stops changing, so a marker exposed by a later rule is removed too and
// Title(Title(s)) == Title(s).
func Title(raw string) string {
	title := clean(raw)
	for {
		next := clean(title)
		if next == title {
			return title
		}
		title = next
	}
}

func clean(title string) string {
	for _, p := range annotationPatterns {
		title = p.ReplaceAllString(title, "")
	}

	title = whitespace.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)
	title = danglingSeparator.ReplaceAllString(title, "")

	return strings.TrimSpace(title)
}
