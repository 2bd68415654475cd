// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molecula/triplemap/boltdb"
	"github.com/molecula/triplemap/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestBoltKeysCommand_Run(t *testing.T) {
	f := newExportFixture(t, "graph.nt", knowsGraph)
	var stdout, stderr bytes.Buffer
	cm := f.command(&stdout, &stderr)
	cm.Storage.Backend = "bolt"
	cm.Storage.Dir = filepath.Join(f.dir, "tables")
	cm.Storage.KeepTables = true
	require.NoError(t, cm.Run(context.Background()))

	// The kept tables reproduce the mapping files.
	for name, path := range map[string]string{"entities": f.entities, "relations": f.relations} {
		var out bytes.Buffer
		keys := NewBoltKeysCommand(strings.NewReader(""), &out, &stderr)
		keys.Path = filepath.Join(cm.Storage.Dir, name+".db")
		require.NoError(t, keys.Run(context.Background()))
		assert.Equal(t, readFile(t, path), out.String(), name)
	}

	var out bytes.Buffer
	keys := NewBoltKeysCommand(strings.NewReader(""), &out, &stderr)
	keys.Path = filepath.Join(cm.Storage.Dir, "relations.db")
	keys.Hexa = true
	require.NoError(t, keys.Run(context.Background()))
	assert.Equal(t, "687474703a2f2f65782f6b6e6f7773\t0\n687474703a2f2f65782f6e616d65\t1\n", out.String())
}

func TestBoltKeysCommand_QuotesAndReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.db")
	tbl, err := boltdb.OpenTable(path)
	require.NoError(t, err)
	for _, key := range []string{`say "hi"`, "a\tb", "plain"} {
		_, _, err := tbl.Intern(key)
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	var out bytes.Buffer
	keys := NewBoltKeysCommand(strings.NewReader(""), &out, &out)
	keys.Path = path
	require.NoError(t, keys.Run(context.Background()))
	assert.Equal(t, "\"say \"\"hi\"\"\"\t0\n\"a\tb\"\t1\nplain\t2\n", out.String())

	// The output reads back as a mapping file.
	r := tabular.NewReader(io.NopCloser(&out), tabular.DefaultDelimiter, 2)
	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{`say "hi"`, "0"}, rec)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "table file modified")
}

func TestBoltKeysCommand_NotATable(t *testing.T) {
	// A valid bolt file without the table buckets is reported, not repaired.
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	var out bytes.Buffer
	keys := NewBoltKeysCommand(strings.NewReader(""), &out, &out)
	keys.Path = path
	assert.Error(t, keys.Run(context.Background()))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "table file modified")
}

func TestBoltKeysCommand_Missing(t *testing.T) {
	var out bytes.Buffer
	keys := NewBoltKeysCommand(strings.NewReader(""), &out, &out)
	keys.Path = filepath.Join(t.TempDir(), "missing.db")
	assert.Error(t, keys.Run(context.Background()))
	_, err := os.Stat(keys.Path)
	assert.True(t, os.IsNotExist(err), "missing table file created")
}
