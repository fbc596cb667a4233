package parser

// Package parser implements the lexer and parser for the brace-delimited
// personality DSL.
//
// The parser is a hand-written recursive descent parser. Numeric arguments
// are parsed with a small Pratt expression parser and folded to constants,
// so the AST only ever holds plain numbers.
//
// # Error recovery
//
// Every section body is a ';'-separated list. When one entry is malformed
// the parser looks for the next ';' at the same nesting depth, drops the
// entry, logs a notice and carries on. When no separator is in sight the
// error is fatal and returned with the offending token's location.
// WithStrict turns every dropped entry into a returned error.
//
// # Example
//
//	p, err := parser.ParseString(`personality "X" { traits { a: 0.9; b: 0.7 } }`, "x.pdsl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(p.Traits)) // 2

import (
	"errors"
	"log/slog"
	"os"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Parse parses a personality document.
//
// On failure the error is a types.ParseErrors holding either the lexer
// error, the fatal syntax error, or (in strict mode) every dropped entry.
func Parse(input string, opts ...CompileOption) (*types.Personality, error) {
	p := NewParser(input, opts...)
	return p.Parse()
}

// ParseString parses text, locating errors in filename.
func ParseString(text, filename string, opts ...CompileOption) (*types.Personality, error) {
	return Parse(text, append([]CompileOption{WithFilename(filename)}, opts...)...)
}

// ParseFile reads and parses the file at path. A read failure is reported as
// a single file error at 1:1, distinct from syntax errors.
func ParseFile(path string, opts ...CompileOption) (*types.Personality, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.ParseErrors{types.NewFileError(path, err)}
	}
	return ParseString(string(data), path, opts...)
}

// AsParseErrors extracts the error list from an error returned by this package.
func AsParseErrors(err error) (types.ParseErrors, bool) {
	var list types.ParseErrors
	if errors.As(err, &list) {
		return list, true
	}
	var single *types.ParseError
	if errors.As(err, &single) {
		return types.ParseErrors{single}, true
	}
	return nil, false
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// Filename is recorded in every error location.
	Filename string
	// Strict reports malformed entries as errors instead of skipping them.
	Strict bool
	// MaxDepth limits nesting of numeric expressions and nested behaviors.
	MaxDepth int
	// Logger receives recovery notices.
	Logger *slog.Logger
}

// WithFilename sets the filename used in error locations.
func WithFilename(name string) CompileOption {
	return func(opts *CompileOptions) {
		opts.Filename = name
	}
}

// WithStrict enables strict mode.
func WithStrict(enable bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.Strict = enable
	}
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithLogger sets the logger that receives recovery notices.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(opts *CompileOptions) {
		opts.Logger = logger
	}
}
