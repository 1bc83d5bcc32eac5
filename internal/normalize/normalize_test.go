package normalize

import "testing"

func TestTitle(t *testing.T) {
	tc := []struct {
		name string
		raw  string
		want string
	}{
		{name: "clean title", raw: "Bohemian Rhapsody", want: "Bohemian Rhapsody"},
		{name: "dash remastered with year", raw: "Song - Remastered 2011", want: "Song"},
		{name: "dash year remaster", raw: "Here Comes The Sun - 2019 Remaster", want: "Here Comes The Sun"},
		{name: "colon remaster", raw: "Song: Remaster", want: "Song"},
		{name: "en dash remastered", raw: "Song – Remastered", want: "Song"},
		{name: "em dash remastered", raw: "Song — Remastered 2009", want: "Song"},
		{name: "hyphenated re-master", raw: "Song - Re-Mastered Version", want: "Song"},
		{name: "remastered version", raw: "Song - Remastered Version 2001", want: "Song"},
		{name: "lower case", raw: "song - remastered", want: "song"},
		{name: "parenthesized remaster", raw: "Song (Remastered 2009)", want: "Song"},
		{name: "version with year", raw: "Song - Version 1999", want: "Song"},
		{name: "single version", raw: "Song - Single Version", want: "Song - Single"},
		{name: "stereo", raw: "Song - Stereo", want: "Song"},
		{name: "stereo mix in parens", raw: "Song (Stereo Mix)", want: "Song"},
		{name: "parens and brackets", raw: "Song (Live) [Bonus]", want: "Song"},
		{name: "feat in parens", raw: "Song (feat. Someone)", want: "Song"},
		{name: "inner parens", raw: "Before (x) After", want: "Before After"},
		{name: "dangling separator", raw: "Song - (Live)", want: "Song"},
		{name: "whitespace runs", raw: "  Song   With   Spaces  ", want: "Song With Spaces"},
		{name: "empty", raw: "", want: ""},
		{name: "only annotation", raw: "(Intro)", want: ""},
		{name: "word containing stereo", raw: "Stereotypes", want: "Stereotypes"},
		{name: "version inside title", raw: "Another Version of You", want: "Another Version of You"},
		{name: "leading version", raw: "Version of Me", want: "Version of Me"},
		{name: "trailing bare version", raw: "Song Version", want: "Song"},
		{name: "version before parens", raw: "Song - Version (Live)", want: "Song"},
		{name: "repeated version", raw: "Song Version Version", want: "Song"},
		{name: "leading stereo", raw: "Stereo Love", want: "Stereo Love"},
		{name: "embedded stereo", raw: "Hey Stereo Girl", want: "Hey Stereo Girl"},
		{name: "trailing bare stereo", raw: "Song Stereo", want: "Song"},
		{name: "stereo then live", raw: "Song - Stereo - Live", want: "Song - Live"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.raw); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Song - Remastered 2011",
		"Song (Live) [Bonus]",
		"Song - Single Version",
		"Another Brick In The Wall, Pt. 2",
		"  a  -  b  ",
		"Song - (Live)",
		"Song - Version (Live)",
		"Song - Version -",
		"Another Version of You",
		"Stereo Love",
		"",
	}

	for _, raw := range inputs {
		once := Title(raw)
		if twice := Title(once); twice != once {
			t.Errorf("Title not idempotent for %q: %q -> %q", raw, once, twice)
		}
	}
}
