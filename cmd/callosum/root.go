// callosum compiles personality documents.
//
// Usage:
//
//	callosum compile [files...] -t json|lua|prompt|sql|cypher [--context=<text>] [-O none|basic|aggressive] [-o <file>]
//	callosum check [files...]
//	callosum optimize [files...] [-O basic|aggressive]
//	callosum fmt [files...] [-w]
//	callosum tokens [file]
//	callosum config [init <path>]
//
// Every command reads standard input when no file is given.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/callosum-dsl/callosum/internal/logging"
	"github.com/callosum-dsl/callosum/pkg/config"
	"github.com/callosum-dsl/callosum/pkg/parser"
)

// version is set at build time via -ldflags.
var version = "dev"

// app holds state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "callosum",
		Short: "Compile personality documents",
		Long: "Callosum parses personality documents, checks them for conflicts and cycles,\n" +
			"and compiles them to JSON, Lua, SQL, Cypher or a system prompt.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "Config file (default "+config.DefaultPath+")")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newCompileCmd(a),
		newCheckCmd(a),
		newOptimizeCmd(a),
		newFmtCmd(a),
		newTokensCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.LogLevel(), cfg.Log.Format, cmd.ErrOrStderr())
	a.cfg = cfg
	a.logger = logging.New("cli")
	return nil
}

// parseOptions returns the parser options for a document named filename.
func (a *app) parseOptions(filename string) []parser.CompileOption {
	opts := []parser.CompileOption{
		parser.WithFilename(filename),
		parser.WithStrict(a.cfg.Compile.Strict),
		parser.WithLogger(a.logger),
	}
	if a.cfg.Compile.MaxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(a.cfg.Compile.MaxDepth))
	}
	return opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callosum %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
