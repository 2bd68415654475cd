// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ctl contains the implementations of the triplemap commands. The
// cmd package wires them to cobra.
package ctl

import (
	"io"

	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/logger"
)

// UsageError is returned for invalid arguments or configuration; the cmd
// package prints usage when it sees one.
var UsageError = errors.New(errors.ErrUsage, "usage error")

// LogConfig selects where and how verbosely commands log.
type LogConfig struct {
	Verbose bool   `toml:"verbose"`
	LogPath string `toml:"path"`
}

// open returns the configured logger and a closer for its file, if any.
func (c LogConfig) open(stderr io.Writer) (logger.Logger, io.Closer, error) {
	if c.LogPath == "" {
		return logger.New(stderr, c.Verbose), nopCloser{}, nil
	}
	fw, err := logger.NewFileWriter(c.LogPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", c.LogPath)
	}
	return logger.New(fw, c.Verbose), fw, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
