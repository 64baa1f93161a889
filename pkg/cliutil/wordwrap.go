package cliutil

import (
	"strings"
	"unicode"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

// wrap does a greedy fill of the words in `s`, keeping each line's text
// strictly under `width - 5 - indent` columns.  Whitespace runs between
// words are kept as-is within a line (so sentence-ending double spaces
// survive), but are dropped at line breaks; each whitespace character
// counts as one space, so embedded newlines and tabs don't leak through.
func wrap(indent, width int, s string) string {
	if width == 0 {
		return s
	}
	limit := width - 5 - indent
	if limit < 1 {
		limit = 1
	}

	var out strings.Builder
	var lineLen, spaceLen int
	onFirstWord := true
	emit := func(word string) {
		switch {
		case onFirstWord:
			onFirstWord = false
			out.WriteString(word)
			lineLen = len(word)
		case lineLen+spaceLen+len(word) >= limit:
			out.WriteString("\n")
			out.WriteString(strings.Repeat(" ", indent))
			out.WriteString(word)
			lineLen = len(word)
		default:
			out.WriteString(strings.Repeat(" ", spaceLen))
			out.WriteString(word)
			lineLen += spaceLen + len(word)
		}
		spaceLen = 0
	}

	wordStart := -1
	for i, r := range s {
		switch {
		case !unicode.IsSpace(r):
			if wordStart < 0 {
				wordStart = i
			}
		case wordStart >= 0:
			emit(s[wordStart:i])
			wordStart = -1
			spaceLen = 1
		default:
			spaceLen++
		}
	}
	if wordStart >= 0 {
		emit(s[wordStart:])
	}
	return out.String()
}
