// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/molecula/triplemap/cmd"
	"github.com/molecula/triplemap/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tExec executes the given `cmd`, which will be writing its output to `w`, and
// can be read from `out`. It will fail the test if the command does not return
// within 5 seconds.
func tExec(t *testing.T, cmd *cobra.Command, out io.Reader, w io.WriteCloser) (output []byte, err error) {
	t.Helper()
	done := make(chan struct{})
	var readErr error
	go func() {
		output, readErr = io.ReadAll(out)
		close(done)
	}()
	err = cmd.Execute()
	if err := w.Close(); err != nil {
		t.Fatalf("closing cmd's stdout: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("Test failed due to command execution timeout")
	}
	if readErr != nil {
		t.Fatal(readErr)
	}
	return output, err
}

// ExecNewRootCommand executes the triplemap root command with the given
// arguments and returns its output and error.
func ExecNewRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, w := io.Pipe()
	rc := cmd.NewRootCommand(strings.NewReader(""), w, w)
	rc.SetArgs(args)
	output, err := tExec(t, rc, out, w)
	return string(output), err
}

func writeFile(t *testing.T, path, data string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRootCommand(t *testing.T) {
	outStr, err := ExecNewRootCommand(t, "--help")
	require.NoError(t, err)
	if !strings.Contains(outStr, "Usage:") ||
		!strings.Contains(outStr, "Available Commands:") ||
		!strings.Contains(outStr, "--storage.backend") {
		t.Fatalf("Expected standard usage message from RootCommand, but got: %s", outStr)
	}
}

func TestRootCommand_Args(t *testing.T) {
	_, err := ExecNewRootCommand(t, "in.nt", "entities.tsv")
	if !errors.Is(err, errors.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

// graph is the running example: three statements over four entities.
const graph = `<A> <knows> <B> .
<B> <knows> <C> .
<A> <likes> <C> .
`

type paths struct {
	input, entities, relations, triples string
}

func newPaths(t *testing.T, input string) paths {
	dir := t.TempDir()
	return paths{
		input:     writeFile(t, filepath.Join(dir, "graph.nt"), input),
		entities:  filepath.Join(dir, "entities.tsv"),
		relations: filepath.Join(dir, "relations.tsv"),
		triples:   filepath.Join(dir, "triples.tsv"),
	}
}

func (p paths) args(extra ...string) []string {
	return append(extra, p.input, p.entities, p.relations, p.triples)
}

func TestRootCommand_Export(t *testing.T) {
	p := newPaths(t, graph)
	_, err := ExecNewRootCommand(t, p.args("--progress-interval", "0s")...)
	require.NoError(t, err)

	assert.Equal(t, "A\t0\nB\t1\nC\t2\n", readFile(t, p.entities))
	assert.Equal(t, "knows\t0\nlikes\t1\n", readFile(t, p.relations))
	assert.Equal(t, "0\t0\t1\n1\t0\t2\n0\t1\t2\n", readFile(t, p.triples))
	require.NotNil(t, cmd.Exporter.Summary)
	assert.Equal(t, uint64(3), cmd.Exporter.Summary.Statements)

	out, err := ExecNewRootCommand(t, "check", p.entities, p.relations, p.triples)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 3 entities, 2 relations, 3 triples")
}

func TestRootCommand_ConfigPriority(t *testing.T) {
	p := newPaths(t, graph)
	conf := writeFile(t, filepath.Join(t.TempDir(), "triplemap.toml"), `
delimiter = "comma"
crlf = true

[storage]
backend = "bolt"
`)

	// Config file only.
	_, err := ExecNewRootCommand(t, p.args("-c", conf)...)
	require.NoError(t, err)
	assert.Equal(t, "knows,0\r\nlikes,1\r\n", readFile(t, p.relations))
	assert.Equal(t, "bolt", cmd.Exporter.Storage.Backend)

	// The environment beats the config file.
	t.Setenv("TRIPLEMAP_DELIMITER", "pipe")
	_, err = ExecNewRootCommand(t, p.args("-c", conf)...)
	require.NoError(t, err)
	assert.Equal(t, "knows|0\r\nlikes|1\r\n", readFile(t, p.relations))

	// Flags beat both.
	_, err = ExecNewRootCommand(t, p.args("-c", conf, "--delimiter", "tab", "--crlf=false")...)
	require.NoError(t, err)
	assert.Equal(t, "knows\t0\nlikes\t1\n", readFile(t, p.relations))
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	p := newPaths(t, graph)
	conf := writeFile(t, filepath.Join(t.TempDir(), "triplemap.toml"), "unknown-option = 1\n")
	_, err := ExecNewRootCommand(t, p.args("-c", conf)...)
	if !errors.Is(err, errors.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	assert.Contains(t, err.Error(), "unknown-option")
}

func TestGenerateConfigCommand(t *testing.T) {
	out, err := ExecNewRootCommand(t, "generate-config")
	require.NoError(t, err)

	// The generated config is accepted as is.
	conf := writeFile(t, filepath.Join(t.TempDir(), "triplemap.toml"), out)
	p := newPaths(t, graph)
	_, err = ExecNewRootCommand(t, p.args("-c", conf)...)
	require.NoError(t, err, fmt.Sprintf("config:\n%s", out))
	assert.Equal(t, "A\t0\nB\t1\nC\t2\n", readFile(t, p.entities))
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("TRIPLEMAP_STORAGE_DIR", "/var/tmp/tables")
	out, err := ExecNewRootCommand(t, "config", "--storage.backend", "bolt", "--crlf")
	require.NoError(t, err)
	assert.Contains(t, out, `backend = "bolt"`)
	assert.Contains(t, out, `dir = "/var/tmp/tables"`)
	assert.Contains(t, out, "crlf = true")
}

func TestBoltKeysCommand(t *testing.T) {
	p := newPaths(t, graph)
	dir := t.TempDir()
	_, err := ExecNewRootCommand(t, p.args("--storage.backend", "bolt", "--storage.dir", dir, "--storage.keep-tables")...)
	require.NoError(t, err)

	out, err := ExecNewRootCommand(t, "bolt", "keys", filepath.Join(dir, "entities.db"))
	require.NoError(t, err)
	assert.Equal(t, readFile(t, p.entities), out)
}
