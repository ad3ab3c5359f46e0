package cli

import (
	"errors"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/agentflare-ai/jsondelta"
)

var errBothStdin = errors.New("only one input can be read from stdin")

type applyOptions struct {
	force         bool
	skipConflicts bool
	ignoreErrors  bool
	showDiff      bool
	output        string
}

func (o applyOptions) flags() []jsondelta.ApplyFlag {
	var flags []jsondelta.ApplyFlag
	if o.force {
		flags = append(flags, jsondelta.Force)
	}
	if o.skipConflicts {
		flags = append(flags, jsondelta.SkipConflicts)
	}
	if o.ignoreErrors {
		flags = append(flags, jsondelta.IgnoreErrors)
	}
	return flags
}

func newApplyCommand(global *globalOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply DOCUMENT PATCH",
		Short: "Apply PATCH to DOCUMENT and print the result",
		Example: `  jsondelta apply document.json patch.json
  jsondelta apply --skip-conflicts -o yaml document.yaml patch.yaml
  jsondelta diff a.json b.json | jsondelta apply --show-diff a.json -`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			if args[0] == stdinName && args[1] == stdinName {
				return usageError{err: errBothStdin}
			}

			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			patch, err := readPatch(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			result, err := jsondelta.Apply(doc, patch,
				jsondelta.WithApplyFlags(opts.flags()...),
				jsondelta.WithLogger(global.logger),
			)
			if err != nil {
				return err
			}

			if opts.showDiff {
				text, err := unifiedDiff(args[0], doc, result, opts.output)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			return writeOutput(cmd.OutOrStdout(), result, opts.output)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.force, "force", false, "Let writes create missing parents or overwrite members, and treat failed tests as passing")
	f.BoolVar(&opts.skipConflicts, "skip-conflicts", false, "Skip the operation following a failed test")
	f.BoolVar(&opts.ignoreErrors, "ignore-errors", false, "Log failed operations and continue")
	f.BoolVar(&opts.showDiff, "show-diff", false, "Print a unified diff of the document instead of the result")
	addOutputFlag(f, &opts.output)

	return cmd
}

// unifiedDiff renders before and after in format and compares them line by line.
func unifiedDiff(name string, before, after any, format string) (string, error) {
	a, err := render(before, format)
	if err != nil {
		return "", err
	}
	b, err := render(after, format)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}
