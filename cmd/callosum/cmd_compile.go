package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
)

type compileFlags struct {
	target   string
	context  string
	optimize string
	strict   bool
	output   string
}

func newCompileCmd(a *app) *cobra.Command {
	var flags compileFlags
	cmd := &cobra.Command{
		Use:   "compile [files...]",
		Short: "Compile documents to a target format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompile(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.target, "target", "t", "", "Target: json, lua, prompt, sql or cypher (default from config)")
	f.StringVar(&flags.context, "context", "", "Context clause for the prompt target")
	f.StringVarP(&flags.optimize, "optimize", "O", "", "Optimization level: none, basic or aggressive")
	f.BoolVar(&flags.strict, "strict", false, "Treat skipped entries as errors")
	f.StringVarP(&flags.output, "output", "o", "", "Write output to a file instead of stdout")
	return cmd
}

func (a *app) runCompile(cmd *cobra.Command, args []string, flags compileFlags) error {
	if cmd.Flags().Changed("strict") {
		a.cfg.Compile.Strict = flags.strict
	}

	targetName := a.cfg.Compile.Target
	if flags.target != "" {
		targetName = flags.target
	}
	target, err := compiler.ParseTarget(targetName)
	if err != nil {
		return err
	}

	levelName := a.cfg.Compile.Optimize
	if flags.optimize != "" {
		levelName = flags.optimize
	}
	level, err := optimizer.ParseLevel(levelName)
	if err != nil {
		return err
	}

	hint := a.cfg.Compile.Context
	if cmd.Flags().Changed("context") {
		hint = flags.context
	}

	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}
	if flags.output != "" && len(inputs) > 1 {
		return fmt.Errorf("--output needs a single input, got %d", len(inputs))
	}

	reqs := make([]pipeline.Request, len(inputs))
	for i, in := range inputs {
		reqs[i] = pipeline.Request{
			Source:   in.source,
			Filename: in.name,
			Target:   target,
			Context:  hint,
			Level:    level,
		}
	}

	runner := pipeline.New(a.cfg.RunOptions(a.logger)...)
	responses, err := runner.RunBatch(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var failed int
	for _, resp := range responses {
		if resp.Err != nil {
			failed++
			fmt.Fprintln(stderr, resp.Err)
			continue
		}
		for _, w := range resp.Warnings {
			fmt.Fprintf(stderr, "%s: warning: %s\n", displayName(resp.Filename), w)
		}
		out := resp.Output
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		if flags.output != "" {
			if err := os.WriteFile(flags.output, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", flags.output, err)
			}
			continue
		}
		fmt.Fprint(stdout, out)
	}
	return failures(failed)
}
