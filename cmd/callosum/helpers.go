package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// input is one document to process. The name is empty for standard input,
// which error locations print as <input>.
type input struct {
	name   string
	source string
}

// readInputs reads the named files, or standard input when there are none
// or the only argument is "-".
func readInputs(cmd *cobra.Command, args []string) ([]input, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []input{{source: string(data)}}, nil
	}

	inputs := make([]input, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, input{name: path, source: string(data)})
	}
	return inputs, nil
}

// errFailed is returned after per-document errors have been printed, so
// that main only sets the exit status.
var errFailed = errors.New("one or more documents failed")

func failures(n int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%w (%d)", errFailed, n)
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}
