// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/molecula/triplemap/ctl"
	"github.com/spf13/cobra"
)

var Conf *ctl.ConfigCommand

func newConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	Conf = ctl.NewConfigCommand(stdin, stdout, stderr)
	Conf.Config = ctl.NewExportCommand(stdin, stdout, stderr)
	confCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration.",
		Long: `config prints the configuration that the same flags, environment and
config file would give an export, without running it.
`,
		Args: cobra.NoArgs,
		RunE: UsageErrorWrapper(Conf),
	}
	exportFlags(confCmd, Conf.Config)

	return confCmd
}
