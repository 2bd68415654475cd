// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"

	"github.com/molecula/triplemap/ctl"
	"github.com/spf13/cobra"
)

func newBoltCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bolt",
		Short: "Inspect bolt table files.",
		Long: `
Provides a set of commands for inspecting the identifier tables kept by an
export run with --storage.backend=bolt --storage.keep-tables.
`,
	}
	cmd.AddCommand(newBoltKeysCommand(stdin, stdout, stderr))
	return cmd
}

func newBoltKeysCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := ctl.NewBoltKeysCommand(stdin, stdout, stderr)
	cmd := &cobra.Command{
		Use:   "keys [flags] PATH",
		Short: "Print the keys of a bolt table file.",
		Long: `
Prints the key and id of every entry of a bolt table file in id order, in
the layout of a mapping file.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: table file path required", ctl.UsageError)
			} else if len(args) > 1 {
				return fmt.Errorf("%w: too many command line arguments", ctl.UsageError)
			}
			c.Path = args[0]
			return nil
		},
		RunE: UsageErrorWrapper(c),
	}

	flags := cmd.Flags()
	flags.BoolVar(&c.Hexa, "hexa", false, "Print hexadecimal rather than plain text")

	return cmd
}
