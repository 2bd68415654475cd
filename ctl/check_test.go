// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molecula/triplemap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckCommand(t *testing.T, entities, relations, triples string) (*CheckCommand, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))
		return path
	}
	stdout := &bytes.Buffer{}
	cm := NewCheckCommand(strings.NewReader(""), stdout, &bytes.Buffer{})
	cm.EntityPath = write("entities.tsv", entities)
	cm.RelationPath = write("relations.tsv", relations)
	cm.TriplePath = write("triples.tsv", triples)
	return cm, stdout
}

func TestCheckCommand_Valid(t *testing.T) {
	cm, stdout := newCheckCommand(t,
		"A\t0\nB\t1\nC\t2\n",
		"knows\t0\n",
		"0\t0\t1\n1\t0\t2\n0\t0\t2\n",
	)
	if err := cm.Run(context.Background()); err != nil {
		t.Fatalf("Check Run doesn't work: %s", err)
	}
	assert.Equal(t, "ok: 3 entities, 1 relations, 3 triples\n", stdout.String())
	assert.Equal(t, &CheckResult{Entities: 3, Relations: 1, Triples: 3}, cm.Result)
}

func TestCheckCommand_SelfLoopAndEmpty(t *testing.T) {
	cm, _ := newCheckCommand(t, "X\t0\n", "r\t0\n", "0\t0\t0\n")
	require.NoError(t, cm.Run(context.Background()))

	cm, stdout := newCheckCommand(t, "", "", "")
	require.NoError(t, cm.Run(context.Background()))
	assert.Equal(t, "ok: 0 entities, 0 relations, 0 triples\n", stdout.String())
}

func TestCheckCommand_Export(t *testing.T) {
	f := newExportFixture(t, "graph.nt", knowsGraph)
	var stdout, stderr bytes.Buffer
	require.NoError(t, f.command(&stdout, &stderr).Run(context.Background()))

	cm := NewCheckCommand(strings.NewReader(""), &stdout, &stderr)
	cm.EntityPath, cm.RelationPath, cm.TriplePath = f.entities, f.relations, f.triples
	if err := cm.Run(context.Background()); err != nil {
		t.Fatalf("exported mappings fail the check: %s", err)
	}
	assert.Equal(t, uint64(3), cm.Result.Triples)
}

func TestCheckCommand_Violations(t *testing.T) {
	tests := map[string]struct {
		entities, relations, triples string
		problem                      string
		// count, if set, is the exact number of problems expected.
		count int
	}{
		"DuplicateKey": {
			entities:  "A\t0\nA\t1\n",
			relations: "r\t0\n",
			triples:   "0\t0\t1\n",
			problem:   `key "A" mapped to 0 and 1`,
		},
		"DuplicateID": {
			entities:  "A\t0\nB\t0\n",
			relations: "r\t0\n",
			triples:   "0\t0\t0\n",
			problem:   "id 0 assigned twice",
		},
		"Sparse": {
			entities:  "A\t0\nB\t2\n",
			relations: "r\t0\n",
			triples:   "0\t0\t2\n",
			problem:   "not the dense range",
		},
		"BadID": {
			entities:  "A\tzero\n",
			relations: "r\t0\n",
			triples:   "",
			problem:   `invalid id "zero"`,
		},
		"Dangling": {
			entities:  "A\t0\nB\t1\n",
			relations: "r\t0\n",
			triples:   "0\t0\t1\n0\t1\t1\n",
			problem:   "id 1 is not mapped",
		},
		"Order": {
			entities:  "A\t0\nB\t1\n",
			relations: "r\t0\n",
			triples:   "1\t0\t0\n",
			problem:   "out of first-occurrence order",
		},
		"PermutedMapping": {
			entities:  "B\t1\nA\t0\n",
			relations: "r\t0\n",
			triples:   "0\t0\t1\n",
			problem:   "id 1 out of order, expected 0",
			count:     2,
		},
		"OrderThenValid": {
			entities:  "A\t0\nB\t1\nC\t2\n",
			relations: "r\t0\ns\t1\n",
			triples:   "1\t0\t0\n0\t1\t2\n2\t1\t2\n",
			problem:   "ids 1 0 0 out of first-occurrence order",
			count:     1,
		},
		"Unused": {
			entities:  "A\t0\nB\t1\nC\t2\n",
			relations: "r\t0\n",
			triples:   "0\t0\t1\n",
			problem:   "2 of 3 entities appear in triples",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cm, stdout := newCheckCommand(t, test.entities, test.relations, test.triples)
			err := cm.Run(context.Background())
			if !errors.Is(err, errors.ErrCheckFailed) {
				t.Fatalf("expected check failure, got: %v", err)
			}
			assert.Empty(t, stdout.String())
			found := false
			for _, p := range cm.Result.Problems {
				if strings.Contains(p, test.problem) {
					found = true
				}
			}
			assert.True(t, found, "problem %q not in %v", test.problem, cm.Result.Problems)
			if test.count > 0 {
				assert.Len(t, cm.Result.Problems, test.count, "%v", cm.Result.Problems)
			}
		})
	}
}

func TestCheckCommand_Truncated(t *testing.T) {
	var triples strings.Builder
	for i := 0; i < maxProblems+5; i++ {
		triples.WriteString("7\t0\t7\n")
	}
	cm, _ := newCheckCommand(t, "A\t0\n", "r\t0\n", triples.String())
	err := cm.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, cm.Result.Problems, maxProblems)
	assert.Greater(t, cm.Result.Truncated, 0)
}

func TestCheckCommand_Malformed(t *testing.T) {
	cm, _ := newCheckCommand(t, "A\t0\textra\n", "", "")
	err := cm.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrCheckFailed), "a malformed file is a read error, not a violation")
}
