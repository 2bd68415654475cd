// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package storage

import (
	"os"
	"path/filepath"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/boltdb"
	"github.com/molecula/triplemap/errors"
)

// Identifier table backends.
const (
	MemoryBackend string = "memory"
	BoltBackend   string = "bolt"
)

// DefaultBackend keeps both tables in memory.
const DefaultBackend = MemoryBackend

// Config represents configuration for the identifier tables and for
// object storage.
type Config struct {
	// Backend is MemoryBackend or BoltBackend.
	Backend string `toml:"backend"`

	// Dir holds bolt table files for the duration of a run. Defaults to
	// a directory under os.TempDir().
	Dir string `toml:"dir"`

	// KeepTables leaves the bolt tables in Dir as entities.db and
	// relations.db after the run instead of removing them.
	KeepTables bool `toml:"keep-tables"`

	// S3Region overrides the region from the AWS environment.
	S3Region string `toml:"s3-region"`
	// S3Endpoint points at an S3 compatible service instead of AWS.
	S3Endpoint string `toml:"s3-endpoint"`
}

// NewDefaultConfig returns a new Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Backend: DefaultBackend,
	}
}

// OpenTableFunc returns the table constructor for the configured backend.
func (c Config) OpenTableFunc() (triplemap.OpenTableFunc, error) {
	switch c.Backend {
	case MemoryBackend, "":
		return triplemap.OpenInMemTable, nil
	case BoltBackend:
		dir := c.Dir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "triplemap")
		}
		if c.KeepTables {
			return boltdb.NewKeepTableFunc(dir), nil
		}
		return boltdb.NewOpenTableFunc(dir), nil
	}
	return nil, errors.Newf(errors.ErrUsage, "unknown table backend %q (want %q or %q)", c.Backend, MemoryBackend, BoltBackend)
}
