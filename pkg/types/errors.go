package types

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a parse or compile failure.
type ErrorCode string

const (
	// L01xx: lexical errors
	ErrUnexpectedChar   ErrorCode = "L0101"
	ErrStringNotClosed  ErrorCode = "L0102"
	ErrNewlineInString  ErrorCode = "L0103"
	ErrMalformedNumber  ErrorCode = "L0104"
	ErrCommentNotClosed ErrorCode = "L0105"

	// S02xx: syntax errors
	ErrSyntaxError      ErrorCode = "S0201"
	ErrExpectedToken    ErrorCode = "S0202"
	ErrUnexpectedEnd    ErrorCode = "S0203"
	ErrInvalidName      ErrorCode = "S0204"
	ErrDivisionByZero   ErrorCode = "S0205"
	ErrNotAnInteger     ErrorCode = "S0206"
	ErrSectionOrder     ErrorCode = "S0207"
	ErrTooDeep          ErrorCode = "S0208"
	ErrUnknownKeyword   ErrorCode = "S0209"
	ErrSkippedEntry     ErrorCode = "S0210"
	ErrTrailingTokens   ErrorCode = "S0211"
	ErrEmptyPersonality ErrorCode = "S0212"
	ErrNumberOutOfRange ErrorCode = "S0213"

	// F0xxx: file errors
	ErrFileRead ErrorCode = "F0001"
)

// ErrorKind separates lexical, syntactic and file failures.
type ErrorKind uint8

const (
	KindSyntax ErrorKind = iota
	KindLex
	KindFile
)

func (k ErrorKind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindFile:
		return "file error"
	default:
		return "syntax error"
	}
}

// Location is a source span. Lines and columns are 1-based.
type Location struct {
	Filename  string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (l Location) String() string {
	name := l.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, l.StartLine, l.StartCol)
}

// ParseError is a located lexer, parser or file error.
type ParseError struct {
	Code     ErrorCode
	Kind     ErrorKind
	Message  string
	Location Location
	Token    string
	Err      error
}

// NewParseError creates a syntax error at loc.
func NewParseError(code ErrorCode, message string, loc Location) *ParseError {
	return &ParseError{
		Code:     code,
		Kind:     KindSyntax,
		Message:  message,
		Location: loc,
	}
}

// NewFileError wraps a read failure for filename at location (1,1)-(1,1).
func NewFileError(filename string, err error) *ParseError {
	return &ParseError{
		Code:    ErrFileRead,
		Kind:    KindFile,
		Message: fmt.Sprintf("cannot read %s: %v", filename, err),
		Location: Location{
			Filename:  filename,
			StartLine: 1,
			StartCol:  1,
			EndLine:   1,
			EndCol:    1,
		},
		Err: err,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", e.Location, e.Kind, e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *ParseError) WithToken(token string) *ParseError {
	e.Token = token
	return e
}

// ParseErrors is the failure value of top-level parsing.
type ParseErrors []*ParseError

func (el ParseErrors) Error() string {
	return joinErrors(len(el), func(i int) string { return el[i].Error() })
}

func (el ParseErrors) Unwrap() []error {
	out := make([]error, len(el))
	for i, e := range el {
		out[i] = e
	}
	return out
}

// CompileErrorKind classifies compiler validation failures.
type CompileErrorKind uint8

const (
	CompileInvalidTraitStrength CompileErrorKind = iota
	CompileDuplicateDomain
	CompileEmptyName
	CompileSemanticErrors
	CompileUnknownTarget
	CompileIncompleteNode
)

func (k CompileErrorKind) String() string {
	switch k {
	case CompileInvalidTraitStrength:
		return "InvalidTraitStrength"
	case CompileDuplicateDomain:
		return "DuplicateDomain"
	case CompileEmptyName:
		return "EmptyName"
	case CompileSemanticErrors:
		return "SemanticErrors"
	case CompileUnknownTarget:
		return "UnknownTarget"
	case CompileIncompleteNode:
		return "IncompleteNode"
	default:
		return "(unknown)"
	}
}

// CompileError is a validation failure that blocks code generation.
// Semantic carries the analyzer diagnostics for CompileSemanticErrors. For
// CompileIncompleteNode, Name locates the nil node, e.g. "behavior 0 action".
type CompileError struct {
	Kind     CompileErrorKind
	Name     string
	Value    float64
	Semantic []error
}

func (e *CompileError) Error() string {
	switch e.Kind {
	case CompileInvalidTraitStrength:
		return fmt.Sprintf("InvalidTraitStrength(%s, %g): strength must be within [0, 1]", e.Name, e.Value)
	case CompileDuplicateDomain:
		return fmt.Sprintf("DuplicateDomain(%s): knowledge domain declared more than once", e.Name)
	case CompileEmptyName:
		return "EmptyName: personality name must not be empty"
	case CompileSemanticErrors:
		parts := make([]string, len(e.Semantic))
		for i, s := range e.Semantic {
			parts[i] = s.Error()
		}
		return fmt.Sprintf("SemanticErrors: %s", strings.Join(parts, "; "))
	case CompileUnknownTarget:
		return fmt.Sprintf("UnknownTarget(%s)", e.Name)
	case CompileIncompleteNode:
		return fmt.Sprintf("IncompleteNode(%s): variant is nil", e.Name)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the wrapped analyzer errors to errors.As.
func (e *CompileError) Unwrap() []error {
	return e.Semantic
}

// CompileErrors is the failure value of compilation.
type CompileErrors []*CompileError

func (el CompileErrors) Error() string {
	return joinErrors(len(el), func(i int) string { return el[i].Error() })
}

func (el CompileErrors) Unwrap() []error {
	out := make([]error, len(el))
	for i, e := range el {
		out[i] = e
	}
	return out
}

func joinErrors(n int, at func(int) string) string {
	switch n {
	case 0:
		return "no errors"
	case 1:
		return at(0)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", n)
	for i := 0; i < n; i++ {
		b.WriteString("\n\t")
		b.WriteString(at(i))
	}
	return b.String()
}
