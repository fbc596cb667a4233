package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/types"
)

func newFmtCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Print documents in canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && len(args) == 0 {
				return fmt.Errorf("-w needs at least one file")
			}
			return a.runFmt(cmd, args, write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the source file")
	return cmd
}

func (a *app) runFmt(cmd *cobra.Command, args []string, write bool) error {
	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	var failed int
	for _, in := range inputs {
		p, err := parser.Parse(in.source, a.parseOptions(in.name)...)
		if err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			continue
		}

		formatted := types.Format(p)
		if !write {
			fmt.Fprint(cmd.OutOrStdout(), formatted)
			continue
		}
		if formatted == in.source {
			continue
		}
		if err := os.WriteFile(in.name, []byte(formatted), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", in.name, err)
		}
		a.logger.Info("formatted", "file", in.name)
	}
	return failures(failed)
}
