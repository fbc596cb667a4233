package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/internal/format"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/types"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var level, mode string
	cmd := &cobra.Command{
		Use:   "optimize [files...]",
		Short: "Optimize documents and print them in canonical form",
		Long:  "Optimize prints the optimized document to stdout and the pass statistics\nto stderr.",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := optimizer.ParseLevel(level)
			if err != nil {
				return err
			}
			return a.runOptimize(cmd, args, l, format.ParseMode(mode))
		},
	}
	cmd.Flags().StringVarP(&level, "optimize", "O", "basic", "Optimization level: none, basic or aggressive")
	cmd.Flags().StringVar(&mode, "format", "ascii", "Statistics table format: ascii or markdown")
	return cmd
}

func (a *app) runOptimize(cmd *cobra.Command, args []string, level optimizer.Level, mode format.Mode) error {
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

		optimized, stats := optimizer.Optimize(p, level)
		fmt.Fprintln(stderr, stats.Report(mode))
		fmt.Fprint(out, types.Format(optimized))
	}
	return failures(failed)
}
