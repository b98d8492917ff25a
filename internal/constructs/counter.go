// Package constructs counts source-code constructs and imports with a
// line-oriented lexical scan.
//
// The counter is deliberately not a parser. Keywords are counted wherever
// they appear as whole words, including inside strings and comments.
package constructs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
)

// word matches identifier characters the way Python's Unicode-aware \w
// does; RE2's \w and \b only know ASCII.
const word = `[\p{L}\p{N}_]`

var (
	importPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^import\s+(` + word + `+)`),
		regexp.MustCompile(`^from\s+(` + word + `+)\s+import`),
	}

	ifPattern       = regexp.MustCompile(`if`)
	whilePattern    = regexp.MustCompile(`while`)
	forPattern      = regexp.MustCompile(`for`)
	classPattern    = regexp.MustCompile(`class`)
	defPattern      = regexp.MustCompile(`def`)
	asyncDefPattern = regexp.MustCompile(`async\s+def`)
)

// Result is the outcome of counting one file.
type Result struct {
	Libraries map[string]struct{}
	Counts    map[string]int
	Lines     int
}

// Count scans text and returns the imported top-level module names and the
// construct counts for the whole file.
//
// Imports are only looked for near the top of the file: once more than
// constants.ImportStreakLimit consecutive lines fail to match an import form,
// import scanning stops for the rest of the file.
func Count(text string) Result {
	res := Result{
		Libraries: make(map[string]struct{}),
		Counts:    model.NewConstructCounts(),
	}

	scanImports := true
	streak := 0
	lines := SplitLines(text)
	res.Lines = len(lines)

	for _, line := range lines {
		if scanImports {
			if name, ok := matchImport(line); ok {
				res.Libraries[name] = struct{}{}
				streak = 0
			} else {
				streak++
				if streak > constants.ImportStreakLimit {
					scanImports = false
				}
			}
		}

		defs := countWords(defPattern, line)
		async := countWords(asyncDefPattern, line)

		res.Counts[model.ConstructIf] += countWords(ifPattern, line)
		res.Counts[model.ConstructWhile] += countWords(whilePattern, line)
		res.Counts[model.ConstructFor] += countWords(forPattern, line)
		res.Counts[model.ConstructClass] += countWords(classPattern, line)
		res.Counts[model.ConstructAsyncFunction] += async
		res.Counts[model.ConstructFunction] += max(defs-async, 0)
	}

	return res
}

// countWords counts matches of p in line that stand as whole words, with
// word characters taken from the full Unicode letter and digit classes.
func countWords(p *regexp.Regexp, line string) int {
	n := 0
	for pos := 0; pos < len(line); {
		loc := p.FindStringIndex(line[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if atBoundary(line, start) && atBoundary(line, end) {
			n++
			pos = end
			continue
		}
		_, width := utf8.DecodeRuneInString(line[start:])
		pos = start + width
	}
	return n
}

// atBoundary reports whether i sits between a word and a non-word character
// (or a line edge), given that every pattern starts and ends on a word rune.
func atBoundary(line string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(line[:i])
		before = isWordRune(r)
	}
	if i < len(line) {
		r, _ := utf8.DecodeRuneInString(line[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func matchImport(line string) (string, bool) {
	for _, p := range importPatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// SplitLines splits text on line boundaries. A trailing line break does not
// produce an empty final line, and "\r\n" is a single boundary.
func SplitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexFunc(text, isLineBreak)
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		r, width := utf8.DecodeRuneInString(text[i:])
		if r == '\r' && strings.HasPrefix(text[i:], "\r\n") {
			width = 2
		}
		text = text[i+width:]
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
