package compiler

// Package compiler turns a validated personality into one of several output
// formats.
//
// Every compilation first validates the personality: the name must be
// non-empty, trait strengths must lie in [0, 1], domain names must be unique
// and the semantic analyzer must report no errors. Any failure aborts the
// compilation and no output is produced.
//
// # Targets
//
//   - json: the personality as a JSON document (see DecodeStructured)
//   - lua: a Lua module returning a table
//   - prompt: a natural-language system prompt
//   - sql: CREATE TABLE and INSERT statements
//   - cypher: graph creation statements
//
// # Example
//
//	c := compiler.New(compiler.WithLogger(logger))
//	res, err := c.Compile(p, compiler.TargetPrompt, "You are reviewing code.")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Output)

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/semantic"
	"github.com/callosum-dsl/callosum/pkg/types"
)

// Target names an output format.
type Target string

const (
	TargetJSON   Target = "json"
	TargetLua    Target = "lua"
	TargetPrompt Target = "prompt"
	TargetSQL    Target = "sql"
	TargetCypher Target = "cypher"
)

// Targets lists the built-in targets.
var Targets = []Target{TargetJSON, TargetLua, TargetPrompt, TargetSQL, TargetCypher}

// ParseTarget parses a target name, case-insensitively.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Targets, t) {
		return t, nil
	}
	return "", &types.CompileError{Kind: types.CompileUnknownTarget, Name: s}
}

// Emitter renders a validated personality.
type Emitter interface {
	Emit(p *types.Personality, contextHint string) (string, error)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(p *types.Personality, contextHint string) (string, error)

// Emit calls f.
func (f EmitterFunc) Emit(p *types.Personality, contextHint string) (string, error) {
	return f(p, contextHint)
}

// Result is the output of a successful compilation.
type Result struct {
	Target   Target
	Output   string
	Warnings []semantic.Warning
}

// Compiler compiles personalities to the registered targets.
type Compiler struct {
	opts     CompileOptions
	logger   *slog.Logger
	emitters map[Target]Emitter
}

// CompileOptions configures the compiler.
type CompileOptions struct {
	// Logger receives analyzer warnings at debug level.
	Logger *slog.Logger
	// Emitters overrides or extends the built-in targets.
	Emitters map[Target]Emitter
	// JSONIndent is the indentation of the json target. Empty means compact.
	JSONIndent string
}

// CompileOption configures the compiler.
type CompileOption func(*CompileOptions)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(opts *CompileOptions) {
		opts.Logger = logger
	}
}

// WithEmitter registers an emitter for target, replacing any built-in one.
func WithEmitter(target Target, e Emitter) CompileOption {
	return func(opts *CompileOptions) {
		if opts.Emitters == nil {
			opts.Emitters = make(map[Target]Emitter)
		}
		opts.Emitters[target] = e
	}
}

// WithJSONIndent sets the indentation of the json target.
func WithJSONIndent(indent string) CompileOption {
	return func(opts *CompileOptions) {
		opts.JSONIndent = indent
	}
}

// New creates a compiler with the built-in targets.
func New(opts ...CompileOption) *Compiler {
	options := CompileOptions{
		JSONIndent: "  ",
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	emitters := map[Target]Emitter{
		TargetJSON:   EmitterFunc(func(p *types.Personality, _ string) (string, error) { return EmitJSON(p, options.JSONIndent) }),
		TargetLua:    EmitterFunc(EmitLua),
		TargetPrompt: EmitterFunc(EmitPrompt),
		TargetSQL:    EmitterFunc(EmitSQL),
		TargetCypher: EmitterFunc(EmitCypher),
	}
	for t, e := range options.Emitters {
		emitters[t] = e
	}

	return &Compiler{
		opts:     options,
		logger:   options.Logger.With("component", "compiler"),
		emitters: emitters,
	}
}

// Compile validates p and renders it for target. On failure the error is a
// types.CompileErrors and no output is produced.
func (c *Compiler) Compile(p *types.Personality, target Target, contextHint string) (*Result, error) {
	emitter, ok := c.emitters[target]
	if !ok {
		return nil, types.CompileErrors{{Kind: types.CompileUnknownTarget, Name: string(target)}}
	}

	analysis, errs := Validate(p)
	if len(errs) > 0 {
		c.logger.Debug("validation failed",
			"personality", p.Name,
			"target", string(target),
			"errors", len(errs))
		return nil, errs
	}
	for _, w := range analysis.Warnings {
		c.logger.Debug("semantic warning",
			"personality", p.Name,
			"kind", string(w.Kind),
			"subject", w.Subject,
			"detail", w.Detail)
	}

	out, err := emitter.Emit(p, contextHint)
	if err != nil {
		return nil, fmt.Errorf("emit %s: %w", target, err)
	}
	return &Result{Target: target, Output: out, Warnings: analysis.Warnings}, nil
}

var defaultCompiler = New()

// Compile compiles p with the default compiler and returns only the output.
func Compile(p *types.Personality, target Target, contextHint string) (string, error) {
	res, err := defaultCompiler.Compile(p, target, contextHint)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}
