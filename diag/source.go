// Package diag implements the diagnostic substrate: sourced text, byte
// spans, and structured diagnostics with human and machine renderings.
package diag

import "strings"

// Source is an immutable origin plus the text read from it. A compile run
// owns exactly one Source; every AST node carries a Span into it.
type Source struct {
	// Origin is a file path or synthetic name ("<inline>", "<stdin>", ...).
	Origin string
	// Text is the raw bytes the Source was constructed from.
	Text string

	lineStarts []int
}

// NewSource builds a Source and precomputes line-start offsets used for
// human-readable rendering.
func NewSource(origin, text string) *Source {
	s := &Source{Origin: origin, Text: text}
	s.lineStarts = []int{0}
	for i, r := range text {
		if r == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// Span is a half-open byte range [Start, End) within a single Source.
type Span struct {
	Start int
	End   int
}

// ZeroSpan is the sentinel span used when a node has no meaningful source
// location (e.g., synthesized AST nodes).
var ZeroSpan = Span{}

// IsZero reports whether s carries no location information.
func (s Span) IsZero() bool { return s.Start == 0 && s.End == 0 }

// Text returns the substring of src covered by s.
func (s Span) Text(src *Source) string {
	if src == nil || s.Start < 0 || s.End > len(src.Text) || s.Start > s.End {
		return ""
	}
	return src.Text[s.Start:s.End]
}

// lineCol converts a byte offset into a 1-based (line, column) pair.
func (s *Source) lineCol(offset int) (line, col int) {
	// binary search the largest lineStarts[i] <= offset
	lo, hi := 0, len(s.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line = lo + 1
	col = offset - s.lineStarts[lo] + 1
	return
}

// snippet returns the line of text containing the span's start, along with
// the column at which the span's underline should start and its length; an
// underline for a span running past that line is cut at the line's end.
func (s *Source) snippet(sp Span) (lineText string, lineNo, col, length int) {
	if sp.End < sp.Start {
		sp.End = sp.Start
	}
	lineNo, col = s.lineCol(sp.Start)
	// find end of the first line containing sp.Start
	lineStart := s.lineStarts[lineNo-1]
	lineEnd := len(s.Text)
	if idx := strings.IndexByte(s.Text[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	lineText = s.Text[lineStart:lineEnd]
	length = sp.End - sp.Start
	if sp.Start+length > lineEnd {
		length = lineEnd - sp.Start
	}
	if length < 1 {
		length = 1
	}
	return
}
