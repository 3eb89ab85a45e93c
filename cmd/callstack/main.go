// Command callstack performs whole-program worst-case stack-usage
// analysis on a statically linked executable, grounded on
// original_source/src/main.rs's CLI surface but wired to this
// engine's Go components instead.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "callstack",
		Short:        "Whole-program worst-case stack-usage analysis for statically linked executables",
		SilenceUsage: true,
	}
	root.AddCommand(newAnalyzeCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "analyze INPUT",
		Short: "Generate a call graph and perform whole-program stack usage analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			if opts.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return run(opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.target, "target", "", "target triple for which the code is compiled")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "use verbose output")
	flags.StringVar(&opts.format, "format", "dot", "output format: dot or top")
	flags.StringVar(&opts.start, "start", "", "consider only the call graph reachable from this entry point")
	flags.StringVar(&opts.ir, "ir", "", "path to a YAML IR summary sidecar file (defaults to INPUT with its extension replaced by .yaml)")

	return cmd
}

type runOptions struct {
	input   string
	target  string
	verbose bool
	format  string
	start   string
	ir      string
}
