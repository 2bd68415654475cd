// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"

	"github.com/molecula/triplemap/ctl"
	"github.com/spf13/cobra"
)

var checker *ctl.CheckCommand

func newCheckCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	checker = ctl.NewCheckCommand(stdin, stdout, stderr)
	checkCmd := &cobra.Command{
		Use:   "check [flags] ENTITIES RELATIONS TRIPLES",
		Short: "Verify the consistency of mapping files.",
		Long: `
Reads the three files written by triplemap and verifies that each mapping
is a bijection onto 0..n-1, that every triple references mapped
identifiers, and that identifiers were assigned in first-seen order.
Prints a one line summary when the files are consistent.
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("%w: expected 3 arguments (ENTITIES RELATIONS TRIPLES), got %d", ctl.UsageError, len(args))
			}
			checker.EntityPath, checker.RelationPath, checker.TriplePath = args[0], args[1], args[2]
			return nil
		},
		RunE: UsageErrorWrapper(checker),
	}

	flags := checkCmd.Flags()
	flags.StringVar(&checker.Delimiter, "delimiter", checker.Delimiter, "Field delimiter of the mapping files")
	storageFlags(flags, &checker.Storage)
	logFlags(flags, &checker.Log)

	return checkCmd
}
