// Package cli implements the jsondelta command line.
package cli

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	verbosity int
	logger    logr.Logger
}

// Execute runs the command line with args.
func Execute(args []string) error {
	cmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// NewRootCommand builds the jsondelta command tree on the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{logger: logr.Discard()}

	cmd := &cobra.Command{
		Use:   "jsondelta",
		Short: "Compute and apply RFC 6902 JSON patches",
		Long: `jsondelta computes compact JSON Patch documents between two JSON or YAML
documents and applies patches to documents.`,
		Example: `  # Diff two documents
  jsondelta diff before.json after.json

  # Apply a patch and show what changed
  jsondelta apply --show-diff document.yaml patch.json`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return usageError{err: err}
	})

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		stdr.SetVerbosity(opts.verbosity)
		opts.logger = stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags)).WithName("jsondelta")
		return nil
	}

	cmd.AddCommand(newDiffCommand(opts))
	cmd.AddCommand(newApplyCommand(opts))

	return cmd
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
