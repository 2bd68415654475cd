// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/storage"
	"github.com/molecula/triplemap/tabular"
)

// maxProblems caps the violations reported by CheckCommand.
const maxProblems = 10

// CheckCommand verifies that a set of mapping files is consistent: each
// mapping is a bijection between keys and the dense range [0, n), triples
// only reference mapped identifiers, and identifiers were assigned in the
// order they first appear in the triples. Mapping rows must be in ID order.
type CheckCommand struct {
	EntityPath   string `toml:"-"`
	RelationPath string `toml:"-"`
	TriplePath   string `toml:"-"`

	Delimiter string         `toml:"delimiter"`
	Log       LogConfig      `toml:"log"`
	Storage   storage.Config `toml:"storage"`

	// Result is set after Run, whether or not the check passed.
	Result *CheckResult `toml:"-"`

	// Standard input/output
	*triplemap.CmdIO `toml:"-"`
}

// CheckResult holds the counts and violations found by CheckCommand.
type CheckResult struct {
	Entities  uint64
	Relations uint64
	Triples   uint64
	Problems  []string
	// Truncated is the number of problems beyond maxProblems.
	Truncated int
}

func (r *CheckResult) problemf(format string, v ...interface{}) {
	if len(r.Problems) >= maxProblems {
		r.Truncated++
		return
	}
	r.Problems = append(r.Problems, fmt.Sprintf(format, v...))
}

// NewCheckCommand returns a new instance of CheckCommand.
func NewCheckCommand(stdin io.Reader, stdout, stderr io.Writer) *CheckCommand {
	return &CheckCommand{
		Delimiter: "tab",
		Storage:   *storage.NewDefaultConfig(),
		CmdIO:     triplemap.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the consistency check.
func (cmd *CheckCommand) Run(ctx context.Context) error {
	log, logCloser, err := cmd.Log.open(cmd.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	cmd.SetLogger(log)

	if cmd.EntityPath == "" || cmd.RelationPath == "" || cmd.TriplePath == "" {
		return fmt.Errorf("%w: entity, relation and triple paths are all required", UsageError)
	}
	delim, err := tabular.ParseDelimiter(cmd.Delimiter)
	if err != nil {
		return fmt.Errorf("%w: %v", UsageError, err)
	}

	store := storage.NewStore(cmd.Storage, log)
	res := &CheckResult{}
	cmd.Result = res

	entities, err := checkMapping(ctx, store, cmd.EntityPath, delim, res)
	if err != nil {
		return err
	}
	res.Entities = entities.GetCardinality()
	relations, err := checkMapping(ctx, store, cmd.RelationPath, delim, res)
	if err != nil {
		return err
	}
	res.Relations = relations.GetCardinality()
	if err := checkTriples(ctx, store, cmd.TriplePath, delim, entities, relations, res); err != nil {
		return err
	}

	for _, p := range res.Problems {
		log.Warnf("%s", p)
	}
	if n := len(res.Problems) + res.Truncated; n > 0 {
		return errors.Newf(errors.ErrCheckFailed, "%d problem(s) found, first: %s", n, res.Problems[0])
	}
	fmt.Fprintf(cmd.Stdout, "ok: %d entities, %d relations, %d triples\n", res.Entities, res.Relations, res.Triples)
	return nil
}

// checkMapping reads a (key, id) mapping and returns its identifier set.
func checkMapping(ctx context.Context, store *storage.Store, path string, delim rune, res *CheckResult) (*roaring64.Bitmap, error) {
	rc, err := store.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	r := tabular.NewReader(rc, delim, 2)
	defer r.Close()

	ids := roaring64.New()
	keys := make(map[string]uint64)
	// Records are written as IDs are assigned, so IDs ascend by one.
	var want uint64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, path)
		}
		line := r.Line()
		id, err := strconv.ParseUint(rec[1], 10, 64)
		if err != nil {
			res.problemf("%s:%d: invalid id %q", path, line, rec[1])
			continue
		}
		if id != want {
			res.problemf("%s:%d: id %d out of order, expected %d", path, line, id, want)
		}
		want = id + 1
		if prev, ok := keys[rec[0]]; ok {
			res.problemf("%s:%d: key %q mapped to %d and %d", path, line, rec[0], prev, id)
		} else {
			keys[rec[0]] = id
		}
		if !ids.CheckedAdd(id) {
			res.problemf("%s:%d: id %d assigned twice", path, line, id)
		}
	}
	if n := ids.GetCardinality(); n > 0 && ids.Maximum() != n-1 {
		res.problemf("%s: %d ids are not the dense range [0, %d)", path, n, n)
	}
	return ids, nil
}

// checkTriples verifies referential integrity and first-occurrence order of
// the identifier triples.
func checkTriples(ctx context.Context, store *storage.Store, path string, delim rune, entities, relations *roaring64.Bitmap, res *CheckResult) error {
	rc, err := store.Open(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	r := tabular.NewReader(rc, delim, 3)
	defer r.Close()

	// Next identifier expected on first occurrence, and the identifiers
	// referenced so far.
	var nextEntity, nextRelation uint64
	usedEntities, usedRelations := roaring64.New(), roaring64.New()
	// seen reports whether id is in first-occurrence order. After a
	// violation it resyncs next so that later rows are judged on their own.
	seen := func(id uint64, next *uint64) bool {
		if id < *next {
			return true
		}
		ok := id == *next
		*next = id + 1
		return ok
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, path)
		}
		res.Triples++
		line := r.Line()

		var ids [3]uint64
		for i, f := range rec {
			id, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				res.problemf("%s:%d: invalid id %q", path, line, f)
				continue
			}
			ids[i] = id
			known, used := entities, usedEntities
			if i == 1 {
				known, used = relations, usedRelations
			}
			if !known.Contains(id) {
				res.problemf("%s:%d: id %d is not mapped", path, line, id)
				continue
			}
			used.Add(id)
		}
		// All three are evaluated so that every counter advances.
		subjOK := seen(ids[0], &nextEntity)
		predOK := seen(ids[1], &nextRelation)
		objOK := seen(ids[2], &nextEntity)
		if !subjOK || !predOK || !objOK {
			res.problemf("%s:%d: ids %d %d %d out of first-occurrence order", path, line, ids[0], ids[1], ids[2])
		}
	}
	if n, total := usedEntities.GetCardinality(), entities.GetCardinality(); n != total {
		res.problemf("%s: %d of %d entities appear in triples", path, n, total)
	}
	if n, total := usedRelations.GetCardinality(), relations.GetCardinality(); n != total {
		res.problemf("%s: %d of %d relations appear in triples", path, n, total)
	}
	return nil
}
