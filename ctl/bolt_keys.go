// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"strconv"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/boltdb"
	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/tabular"
)

// BoltKeysCommand prints the (key, id) pairs of a table kept by an export
// with storage.keep-tables set, in ID order. The output is written like a
// tab delimited mapping file. The table file is only read.
type BoltKeysCommand struct {
	// Filepath to the bolt database.
	Path string

	// Hexa prints keys hex encoded.
	Hexa bool

	// Standard input/output
	*triplemap.CmdIO
}

// NewBoltKeysCommand returns a new instance of BoltKeysCommand.
func NewBoltKeysCommand(stdin io.Reader, stdout, stderr io.Writer) *BoltKeysCommand {
	return &BoltKeysCommand{
		CmdIO: triplemap.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints every key of the table.
func (cmd *BoltKeysCommand) Run(ctx context.Context) (err error) {
	// Opening a missing file would create it.
	if _, err := os.Stat(cmd.Path); err != nil {
		return errors.Wrap(err, "stat table file")
	}

	w := tabular.NewWriter(nopWriteCloser{cmd.Stdout}, tabular.DefaultDelimiter)
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var n uint64
	err = boltdb.ReadTable(cmd.Path, func(key string, id uint64) error {
		if n++; n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if cmd.Hexa {
			key = hex.EncodeToString([]byte(key))
		}
		return w.Append(key, strconv.FormatUint(id, 10))
	})
	if err != nil {
		return errors.Wrapf(err, "listing %s", cmd.Path)
	}
	cmd.Logger().Debugf("listed %d keys of %s", n, cmd.Path)
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
