package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentflare-ai/jsondelta"
)

type diffOptions struct {
	tests          bool
	ordinal        bool
	reorder        bool
	verbosePatch   bool
	addForRoot     bool
	replaceForNull bool
	fast           bool
	selector       string
	output         string
}

func (o diffOptions) flags() []jsondelta.DiffFlag {
	var flags []jsondelta.DiffFlag
	for _, f := range []struct {
		set  bool
		flag jsondelta.DiffFlag
	}{
		{o.tests, jsondelta.GenerateTests},
		{o.ordinal, jsondelta.FavorOrdinal},
		{o.reorder, jsondelta.FavorArrayReorder},
		{o.verbosePatch, jsondelta.VerbosePatch},
		{o.addForRoot, jsondelta.UseAddForReplaceOfRoot},
		{o.replaceForNull, jsondelta.UseReplaceForNull},
	} {
		if f.set {
			flags = append(flags, f.flag)
		}
	}
	return flags
}

func newDiffCommand(global *globalOptions) *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff SOURCE TARGET",
		Short: "Print the patch that turns SOURCE into TARGET",
		Example: `  jsondelta diff before.json after.json
  jsondelta diff --tests --select '.settings' old.yaml new.yaml
  cat before.json | jsondelta diff - after.json`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			if args[0] == stdinName && args[1] == stdinName {
				return usageError{err: errBothStdin}
			}

			var docs [2]any
			for i, name := range args {
				doc, err := readDocument(cmd.InOrStdin(), name)
				if err != nil {
					return err
				}
				if docs[i], err = selectDocument(doc, opts.selector); err != nil {
					return err
				}
			}

			diffOpts := []jsondelta.Option{
				jsondelta.WithDiffFlags(opts.flags()...),
				jsondelta.WithLogger(global.logger),
			}
			if opts.fast {
				diffOpts = append(diffOpts, jsondelta.WithFastDiff())
			}
			patch, err := jsondelta.New(docs[0], docs[1], diffOpts...)
			if err != nil {
				return err
			}
			global.logger.V(1).Info("computed patch", "source", args[0], "target", args[1], "operations", len(patch))
			return writeOutput(cmd.OutOrStdout(), patch, opts.output)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.tests, "tests", false, "Emit a test operation before every destructive operation")
	f.BoolVar(&opts.ordinal, "ordinal", false, "Write array appends as a literal index instead of \"-\"")
	f.BoolVar(&opts.reorder, "reorder", false, "Always diff arrays element by element")
	f.BoolVar(&opts.verbosePatch, "verbose-patch", false, "Write added containers one leaf at a time")
	f.BoolVar(&opts.addForRoot, "add-for-root", false, "Write a root replacement as an add")
	f.BoolVar(&opts.replaceForNull, "replace-for-null", false, "Write replacement of null as replace instead of add")
	f.BoolVar(&opts.fast, "fast", false, "Skip move and copy inference")
	f.StringVar(&opts.selector, "select", "", "jq expression applied to both documents before diffing")
	addOutputFlag(f, &opts.output)

	return cmd
}
