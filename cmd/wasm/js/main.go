//go:build js && wasm

// Command callosum-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `callosum` object with the following API:
//
//	callosum.version()                          → string
//	callosum.compile(source, target, context?)  → string  (throws on error)
//	callosum.format(source)                     → string  (throws on error)
//	callosum.check(source)                      → { errors: [...], warnings: [...] }
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o callosum.wasm ./cmd/wasm/js/
package main

import (
	"context"
	"strings"
	"syscall/js"

	"github.com/callosum-dsl/callosum"
	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
	"github.com/callosum-dsl/callosum/pkg/types"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		jsThrow("callosum.compile requires 2 arguments: source and target")
	}
	target, err := compiler.ParseTarget(args[1].String())
	if err != nil {
		jsThrow(err.Error())
	}
	var hint string
	if len(args) > 2 && args[2].Type() == js.TypeString {
		hint = args[2].String()
	}

	out, err := callosum.CompileSource(context.Background(), args[0].String(), target, hint,
		pipeline.WithConcurrency(1))
	if err != nil {
		jsThrow(strings.Join(callosum.ErrorMessages(err), "\n"))
	}
	return out
}

func jsFormat(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("callosum.format requires 1 argument: source")
	}
	p, err := callosum.Parse(args[0].String())
	if err != nil {
		jsThrow(strings.Join(callosum.ErrorMessages(err), "\n"))
	}
	return types.Format(p)
}

func jsCheck(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("callosum.check requires 1 argument: source")
	}
	p, err := callosum.Parse(args[0].String())
	if err != nil {
		return js.ValueOf(map[string]any{"errors": toAny(callosum.ErrorMessages(err)), "warnings": []any{}})
	}

	analysis, errs := compiler.Validate(p)
	var messages []string
	if len(errs) > 0 {
		messages = callosum.ErrorMessages(errs)
	}
	warnings := make([]string, len(analysis.Warnings))
	for i, w := range analysis.Warnings {
		warnings[i] = w.String()
	}
	return js.ValueOf(map[string]any{"errors": toAny(messages), "warnings": toAny(warnings)})
}

// toAny converts to the []any form js.ValueOf accepts.
func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func main() {
	api := map[string]any{
		"compile": js.FuncOf(jsCompile),
		"format":  js.FuncOf(jsFormat),
		"check":   js.FuncOf(jsCheck),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return callosum.Version()
		}),
	}
	js.Global().Set("callosum", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
