package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// span is a half-open byte range [start, end).
type span struct {
	start int
	end   int
}

// matchDelimiter returns the index of the delimiter closing the one at
// src[open]. Nested pairs are depth-counted, quoted strings are skipped and
// a backslash escapes the following byte. See closingQuote for what counts
// as a quoted string.
func matchDelimiter(src string, open, end int, openCh, closeCh byte) (int, error) {
	depth := 0
	for i := open; i < end; i++ {
		switch c := src[i]; c {
		case '\\':
			i++
		case '"':
			if j := closingQuote(src, i, end); j > 0 {
				i = j
			}
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, newError(src, open, "unclosed %q", openCh)
}

// closingQuote returns the index of the quote terminating the string opened
// at src[i], or -1 when the quote should be read as prose. A quoted string
// never spans an unescaped brace, so a lone quote inside a branch cannot
// swallow the brace that closes its block. Braces inside string literals
// are written \{ and \}.
func closingQuote(src string, i, end int) int {
	for j := i + 1; j < end; j++ {
		switch src[j] {
		case '\\':
			j++
		case '{', '}':
			return -1
		case '"':
			return j
		}
	}
	return -1
}

// depthScanner walks a string tracking nesting so callers only act on
// top-level separators. Quoted strings are always skipped; brackets and
// parens are tracked only when full is set.
type depthScanner struct {
	full bool
}

// scan calls visit for every top-level byte index of s. visit returns false
// to stop the walk.
func (d depthScanner) scan(s string, visit func(i int) bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
			continue
		case c == '"':
			if j := closingQuote(s, i, len(s)); j > 0 {
				i = j
				continue
			}
		case c == '{' || (d.full && (c == '[' || c == '(')):
			depth++
			continue
		case c == '}' || (d.full && (c == ']' || c == ')')):
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && !visit(i) {
			return
		}
	}
}

// splitTopLevel splits s on sep wherever sep is outside braces, brackets,
// parens and quoted strings. Spans index into s.
func splitTopLevel(s string, sep byte) []span {
	var out []span
	start := 0
	depthScanner{full: true}.scan(s, func(i int) bool {
		if s[i] == sep {
			out = append(out, span{start, i})
			start = i + 1
		}
		return true
	})
	return append(out, span{start, len(s)})
}

// indexTopLevelColon finds the first ':' outside any nesting, or -1.
func indexTopLevelColon(s string) int {
	idx := -1
	depthScanner{full: true}.scan(s, func(i int) bool {
		if s[i] == ':' {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// indexBranchPipe finds the first single '|' outside nested braces and
// quoted strings, or -1. A "||" pair is skipped.
func indexBranchPipe(s string) int {
	idx := -1
	skipNext := false
	depthScanner{}.scan(s, func(i int) bool {
		if skipNext {
			skipNext = false
			return true
		}
		if s[i] != '|' {
			return true
		}
		if i+1 < len(s) && s[i+1] == '|' {
			skipNext = true
			return true
		}
		idx = i
		return false
	})
	return idx
}

// trimSpan narrows [start, end) of src to exclude surrounding whitespace.
func trimSpan(src string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(src[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(src[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
