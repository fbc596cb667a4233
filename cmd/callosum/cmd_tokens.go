package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/internal/format"
	"github.com/callosum-dsl/callosum/pkg/parser"
)

func newTokensCmd(_ *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd, args)
			if err != nil {
				return err
			}
			in := inputs[0]

			tokens, err := parser.Tokenize(in.source, in.name)
			if err != nil {
				return err
			}

			src := parser.NewSource(in.name, in.source)
			t := format.NewTable(format.ParseMode(mode), "").Header("Position", "Type", "Value")
			for _, tok := range tokens {
				line, col := src.LineCol(tok.Position)
				t.Row(fmt.Sprintf("%d:%d", line, col), tok.Type.String(), tok.Value)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "format", "ascii", "Table format: ascii or markdown")
	return cmd
}
