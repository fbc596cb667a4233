//go:build wasip1

// Command callosum-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin, single JSON object on stdout.
//
//	stdin:  { "source": "<document>", "target": "prompt", "context": "...", "filename": "ada.pdsl", "optimize": "basic" }
//	stdout: { "output": "<compiled text>" }   on success
//	        { "errors": ["<message>", ...] }  on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o callosum.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"source":"personality \"X\" { traits { a: 0.5 } }","target":"lua"}' | wasmtime callosum.wasm
package main

import (
	"context"
	"os"

	"github.com/callosum-dsl/callosum"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
)

func main() {
	if err := callosum.Serve(context.Background(), os.Stdin, os.Stdout, pipeline.WithConcurrency(1)); err != nil {
		os.Exit(1)
	}
}
