package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/callosum-dsl/callosum/pkg/types"
)

const eof = -1

// Lexer converts a personality document into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
// Lexing stops at the first error; recovery is left to the parser.
type Lexer struct {
	input   string  // Input string being scanned
	length  int     // Length of input string
	start   int     // Start position of current token
	current int     // Current position in input
	width   int     // Width of last rune read
	src     *Source // Line index used to locate errors
	err     *types.ParseError
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return NewLexerFile(input, "")
}

// NewLexerFile creates a lexer whose errors are located in filename.
func NewLexerFile(input, filename string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
		src:    NewSource(filename, input),
	}
}

// Tokenize scans the whole input. The returned slice always ends with a
// TokenEOF token unless an error is returned.
func Tokenize(input, filename string) ([]Token, error) {
	l := NewLexerFile(input, filename)
	var tokens []Token
	for {
		t := l.Next()
		if t.Type == TokenError {
			return nil, l.err
		}
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	// skipWhitespace reports an unclosed block comment through l.err
	if l.err != nil {
		return Token{Type: TokenError, Position: l.start, End: l.current}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	switch ch {
	case '<':
		if l.acceptRune('-') && l.acceptRune('>') {
			return l.newToken(TokenBiArrow)
		}
		return l.error(types.ErrUnexpectedChar, "unexpected character '<' (did you mean '<->'?)")
	case '→':
		return l.newToken(TokenArrow)
	}

	// Check for two-character symbols first (e.g., +=, ->)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' {
		return l.scanString()
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if unicode.IsLetter(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrUnexpectedChar, fmt.Sprintf("unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// scanString reads a string literal. The opening quote has already been
// consumed. There are no escape sequences and strings cannot span lines.
func (l *Lexer) scanString() Token {
	for {
		switch l.nextRune() {
		case '"':
			t := l.newToken(TokenString)
			t.Value = t.Value[1 : len(t.Value)-1]
			return t
		case '\n':
			l.backup()
			return l.error(types.ErrNewlineInString, "newline in string literal")
		case eof:
			return l.error(types.ErrStringNotClosed, "unterminated string literal")
		}
	}
}

// scanNumber reads a number literal: digit+ ('.' digit+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrMalformedNumber, "malformed number: expected digits after '.'")
		}
	}

	// 1.2.3 or 12abc
	if l.accept(func(r rune) bool { return r == '.' || r == '_' || unicode.IsLetter(r) }) {
		return l.error(types.ErrMalformedNumber, "malformed number")
	}

	return l.newToken(TokenNumber)
}

// scanName reads an identifier or keyword: letter (letter|digit|_)*
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameRune)

	t := l.newToken(TokenIdent)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
		End:      l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.ParseError{
		Code:     code,
		Kind:     types.KindLex,
		Message:  message,
		Location: l.src.Span(t.Position, t.End),
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
		End:      l.current,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// peekIs reports whether the input at the current position starts with s.
func (l *Lexer) peekIs(s string) bool {
	return l.current+len(s) <= l.length && l.input[l.current:l.current+len(s)] == s
}

func (l *Lexer) skipWhitespace() {
	for l.err == nil {
		l.acceptAll(isWhitespace)
		l.ignore()

		switch {
		case l.peekIs("//"):
			for {
				ch := l.nextRune()
				if ch == eof || ch == '\n' {
					break
				}
			}
			l.ignore()
		case l.peekIs("/*"):
			l.skipBlockComment()
		default:
			return
		}
	}
}

// skipBlockComment consumes a possibly nested /* ... */ comment.
func (l *Lexer) skipBlockComment() {
	open := l.current
	depth := 0
	for {
		switch {
		case l.peekIs("/*"):
			l.current += 2
			depth++
		case l.peekIs("*/"):
			l.current += 2
			depth--
			if depth == 0 {
				l.ignore()
				return
			}
		default:
			if l.nextRune() == eof {
				l.err = &types.ParseError{
					Code:     types.ErrCommentNotClosed,
					Kind:     types.KindLex,
					Message:  "unclosed block comment",
					Location: l.src.Span(open, l.current),
				}
				return
			}
		}
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
