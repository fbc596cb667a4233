package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString // "hello"
	TokenNumber // 12, 0.8
	TokenIdent  // curiosity, tired, month

	// Grouping symbols
	TokenBraceOpen  // {
	TokenBraceClose // }
	TokenParenOpen  // (
	TokenParenClose // )

	// Basic symbols
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenGreater   // >

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /

	// Compound operators
	TokenPlusAssign  // +=
	TokenMinusAssign // -=
	TokenArrow       // -> or →
	TokenBiArrow     // <->

	// Structural keywords
	TokenPersonality // personality
	TokenTraits      // traits
	TokenKnowledge   // knowledge
	TokenBehaviors   // behaviors
	TokenEvolution   // evolution
	TokenWith        // with
	TokenDomain      // domain
	TokenWhen        // when
	TokenIf          // if
	TokenThen        // then
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenNumber:
		return "(number)"
	case TokenIdent:
		return "(name)"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenGreater:
		return ">"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenPlusAssign:
		return "+="
	case TokenMinusAssign:
		return "-="
	case TokenArrow:
		return "->"
	case TokenBiArrow:
		return "<->"
	case TokenPersonality:
		return "personality"
	case TokenTraits:
		return "traits"
	case TokenKnowledge:
		return "knowledge"
	case TokenBehaviors:
		return "behaviors"
	case TokenEvolution:
		return "evolution"
	case TokenWith:
		return "with"
	case TokenDomain:
		return "domain"
	case TokenWhen:
		return "when"
	case TokenIf:
		return "if"
	case TokenThen:
		return "then"
	default:
		return "(unknown)"
	}
}

// IsKeyword reports whether tt is one of the structural keywords.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenPersonality && tt <= TokenThen
}

// Token represents a lexical token in a personality document.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token (string contents without quotes)
	Position int       // Starting byte offset in the input
	End      int       // Byte offset just past the token
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
	'>': TokenGreater,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'+': {{'=', TokenPlusAssign}},
	'-': {{'=', TokenMinusAssign}, {'>', TokenArrow}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a structural keyword.
// Returns 0 if the string is not a keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "personality":
		return TokenPersonality
	case "traits":
		return TokenTraits
	case "knowledge":
		return TokenKnowledge
	case "behaviors":
		return TokenBehaviors
	case "evolution":
		return TokenEvolution
	case "with":
		return TokenWith
	case "domain":
		return TokenDomain
	case "when":
		return TokenWhen
	case "if":
		return TokenIf
	case "then":
		return TokenThen
	default:
		return 0
	}
}
