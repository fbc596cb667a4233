package parser

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Source maps byte offsets of a named input to 1-based line/column pairs.
type Source struct {
	name       string
	content    string
	lineStarts []int
}

// NewSource indexes the line starts of content.
func NewSource(name, content string) *Source {
	s := &Source{name: name, content: content}
	s.lineStarts = make([]int, 1, strings.Count(content, "\n")+1)
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// Name returns the filename the source was created with.
func (s *Source) Name() string {
	return s.name
}

// LineCol converts a byte offset to a line and a rune column.
func (s *Source) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(s.content) {
		pos = len(s.content)
	}
	idx := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > pos
	}) - 1
	start := s.lineStarts[idx]
	return idx + 1, utf8.RuneCountInString(s.content[start:pos]) + 1
}

// Span builds a Location covering the bytes [start, end).
func (s *Source) Span(start, end int) types.Location {
	if end < start {
		end = start
	}
	sl, sc := s.LineCol(start)
	el, ec := s.LineCol(end)
	return types.Location{
		Filename:  s.name,
		StartLine: sl,
		StartCol:  sc,
		EndLine:   el,
		EndCol:    ec,
	}
}

// TokenLocation returns the span of t.
func (s *Source) TokenLocation(t Token) types.Location {
	return s.Span(t.Position, t.End)
}
