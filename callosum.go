// Package callosum compiles personality documents: weighted traits,
// knowledge domains, conditional behaviors and evolution rules.
//
// # Quick Start
//
//	// Parse, validate and compile in one call
//	prompt, err := callosum.CompileSource(ctx, src, compiler.TargetPrompt, "You are reviewing code.")
//
//	// Parse once, compile to several targets
//	p, err := callosum.Parse(src)
//	js, _ := callosum.Compile(p, compiler.TargetJSON, "")
//	lua, _ := callosum.Compile(p, compiler.TargetLua, "")
//
// # More Information
//
//   - Parser: github.com/callosum-dsl/callosum/pkg/parser
//   - Analyzer: github.com/callosum-dsl/callosum/pkg/semantic
//   - Optimizer: github.com/callosum-dsl/callosum/pkg/optimizer
//   - Compiler: github.com/callosum-dsl/callosum/pkg/compiler
//   - Pipeline: github.com/callosum-dsl/callosum/pkg/pipeline
package callosum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
	"github.com/callosum-dsl/callosum/pkg/semantic"
	"github.com/callosum-dsl/callosum/pkg/types"
)

// Version returns the current version of Callosum.
func Version() string {
	return "v0.1.0-dev"
}

// Parse parses a personality document.
func Parse(text string, opts ...parser.CompileOption) (*types.Personality, error) {
	return parser.Parse(text, opts...)
}

// ParseString parses a document, naming it filename in error locations.
func ParseString(text, filename string) (*types.Personality, error) {
	return parser.ParseString(text, filename)
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*types.Personality, error) {
	return parser.ParseFile(path)
}

// Analyze runs the semantic checks over p.
func Analyze(p *types.Personality) *semantic.Result {
	return semantic.Analyze(p)
}

// Optimize returns an optimized copy of p. p itself is not modified.
func Optimize(p *types.Personality, level optimizer.Level) (*types.Personality, *optimizer.Stats) {
	return optimizer.Optimize(p, level)
}

// MustParse is like Parse but panics if the document cannot be parsed.
// It simplifies safe initialization of global variables.
func MustParse(text string) *types.Personality {
	p, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("callosum: Parse: %v", err))
	}
	return p
}

// Compile validates p and renders it for target.
func Compile(p *types.Personality, target compiler.Target, contextHint string) (string, error) {
	return compiler.Compile(p, target, contextHint)
}

// CompileSource parses, validates and compiles source in a single call.
func CompileSource(ctx context.Context, source string, target compiler.Target, contextHint string, opts ...pipeline.RunOption) (string, error) {
	resp, err := pipeline.New(opts...).Run(ctx, pipeline.Request{
		Source:  source,
		Target:  target,
		Context: contextHint,
	})
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

// ErrorMessages flattens err into one message per underlying parse or
// compile error.
func ErrorMessages(err error) []string {
	if err == nil {
		return nil
	}
	var perrs types.ParseErrors
	if errors.As(err, &perrs) {
		out := make([]string, len(perrs))
		for i, e := range perrs {
			out[i] = e.Error()
		}
		return out
	}
	var cerrs types.CompileErrors
	if errors.As(err, &cerrs) {
		out := make([]string, len(cerrs))
		for i, e := range cerrs {
			out[i] = e.Error()
		}
		return out
	}
	return []string{err.Error()}
}

// Request is the JSON request read by Serve.
type Request struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Context  string `json:"context,omitempty"`
	Filename string `json:"filename,omitempty"`
	Optimize string `json:"optimize,omitempty"`
}

// Response is the JSON response written by Serve. Exactly one field is set.
type Response struct {
	Output string   `json:"output,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// Serve reads a single Request from r, compiles it and writes a Response to
// w. It returns a non-nil error when the response carries errors.
func Serve(ctx context.Context, r io.Reader, w io.Writer, opts ...pipeline.RunOption) error {
	resp, err := handle(ctx, r, opts)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		return encErr
	}
	return err
}

func handle(ctx context.Context, r io.Reader, opts []pipeline.RunOption) (Response, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		err = fmt.Errorf("invalid request JSON: %w", err)
		return Response{Errors: []string{err.Error()}}, err
	}

	target := compiler.TargetJSON
	if req.Target != "" {
		t, err := compiler.ParseTarget(req.Target)
		if err != nil {
			return Response{Errors: ErrorMessages(err)}, err
		}
		target = t
	}
	level, err := optimizer.ParseLevel(req.Optimize)
	if err != nil {
		return Response{Errors: []string{err.Error()}}, err
	}

	resp, err := pipeline.New(opts...).Run(ctx, pipeline.Request{
		Source:   req.Source,
		Filename: req.Filename,
		Target:   target,
		Context:  req.Context,
		Level:    level,
	})
	if err != nil {
		return Response{Errors: ErrorMessages(err)}, err
	}
	return Response{Output: resp.Output}, nil
}
