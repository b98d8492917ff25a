// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/ghstats/internal/constants"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const ellipsis = "..."

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns.
// ANSI escape sequences take no space and an emoji followed by U+FE0F
// takes two columns.
func DisplayWidth(s string) int {
	width := 0
	runes := []rune(StripAnsi(s))
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) && runes[i+1] == '\uFE0F' {
			width += 2
			i++
			continue
		}
		if runes[i] == '\uFE0F' {
			continue
		}
		width += runewidth.RuneWidth(runes[i])
	}
	return width
}

// TruncateToWidth cuts s to at most maxWidth display columns, ending in
// "..." when anything was removed. Escape sequences are kept, and a reset
// code is appended after the ellipsis if s contained any. Returns the
// result and its visible width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	width := DisplayWidth(s)
	if width <= maxWidth {
		return s, width
	}

	target := max(maxWidth-constants.TruncationSuffixWidth, 0)
	escapes := ansiRegex.FindAllStringIndex(s, -1)

	var b strings.Builder
	visible, pos, next := 0, 0, 0
	for pos < len(s) && visible < target {
		if next < len(escapes) && pos == escapes[next][0] {
			b.WriteString(s[pos:escapes[next][1]])
			pos = escapes[next][1]
			next++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[pos:])
		end := pos + size
		w := runewidth.RuneWidth(r)
		if vs, vsSize := utf8.DecodeRuneInString(s[end:]); end < len(s) && vs == '\uFE0F' {
			end += vsSize
			w = 2
		} else if r == '\uFE0F' {
			pos = end
			continue
		}

		if visible+w > target {
			break
		}
		b.WriteString(s[pos:end])
		visible += w
		pos = end
	}

	b.WriteString(ellipsis)
	if len(escapes) > 0 {
		b.WriteString("\033[0m")
	}
	return b.String(), min(maxWidth, visible+constants.TruncationSuffixWidth)
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}

// FirstLine returns the subject line of a commit message.
func FirstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSpace(line)
}
