// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
	toml "github.com/pelletier/go-toml"
)

// ConfigCommand prints an export configuration, typically the one that
// results from merging flags, environment and config file.
type ConfigCommand struct {
	*triplemap.CmdIO
	Config *ExportCommand
}

// NewConfigCommand returns a new instance of ConfigCommand.
func NewConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		CmdIO: triplemap.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the configuration as TOML.
func (cmd *ConfigCommand) Run(_ context.Context) error {
	buf, err := toml.Marshal(*cmd.Config)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	fmt.Fprintln(cmd.Stdout, string(buf))
	return nil
}
