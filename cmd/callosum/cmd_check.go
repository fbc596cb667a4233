package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/internal/format"
	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/types"
)

func newCheckCmd(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report semantic errors and warnings",
		Long:  "Check parses each document and runs every validation the compiler runs,\nwithout producing output. The exit status is 1 if any document is invalid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args, format.ParseMode(mode))
		},
	}
	cmd.Flags().StringVar(&mode, "format", "ascii", "Table format: ascii or markdown")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, args []string, mode format.Mode) error {
	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var failed int
	for _, in := range inputs {
		p, err := parser.Parse(in.source, a.parseOptions(in.name)...)
		if err != nil {
			failed++
			fmt.Fprintln(stderr, err)
			continue
		}

		analysis, errs := compiler.Validate(p)
		for _, e := range errs {
			if e.Kind != types.CompileSemanticErrors {
				fmt.Fprintf(stderr, "%s: %s\n", displayName(in.name), e)
			}
		}
		fmt.Fprintf(out, "%s (%s)\n", displayName(in.name), p.Name)
		fmt.Fprintln(out, analysis.Report(mode))
		if len(errs) > 0 {
			failed++
		}
	}
	return failures(failed)
}
