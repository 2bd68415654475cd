// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/molecula/triplemap/errors"
	"github.com/molecula/triplemap/logger"
	"github.com/zeebo/blake3"
)

// checkEvery is how many statements pass between context and progress
// checks.
const checkEvery = 1024

// Record tags mixed into the run checksum so that identical field values
// written to different sinks hash differently.
const (
	tagEntity   = 'E'
	tagRelation = 'R'
	tagTriple   = 'T'
)

// Pipeline interns a statement stream into entity and relation identifiers
// and rewrites every statement as an identifier triple.
//
// A Pipeline holds configuration only; every call to Process starts with
// fresh, empty tables.
type Pipeline struct {
	// OpenTable creates the entity and relation tables. Defaults to
	// OpenInMemTable.
	OpenTable OpenTableFunc

	// ProgressInterval is the minimum time between progress log lines.
	// Zero disables progress logging.
	ProgressInterval time.Duration

	Logger logger.Logger
}

// Summary describes a completed Process call.
type Summary struct {
	Statements uint64
	Entities   uint64
	Relations  uint64

	// Checksum is the hex BLAKE3 digest of every record in emission
	// order. Equal inputs produce equal checksums.
	Checksum string

	Elapsed time.Duration
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d statements, %d entities, %d relations in %v (checksum %s)",
		s.Statements, s.Entities, s.Relations, s.Elapsed.Round(time.Millisecond), s.Checksum)
}

// Process reads src to the end. For each statement it interns the subject
// (entity), the predicate (relation) and the object (entity), in that order,
// appending a mapping record to entities or relations whenever a key is
// seen for the first time, and then appends exactly one triple record of
// the three IDs to triples.
//
// Records are forwarded as they are produced, so memory use is bounded by
// the tables rather than the number of statements. Process neither closes
// src nor the sinks; that is left to whoever opened them. Any read, write,
// or table error aborts the pass and is returned; records appended before
// the failure stay appended.
func (p *Pipeline) Process(ctx context.Context, src StatementSource, entities, relations, triples RecordSink) (sum *Summary, err error) {
	log := p.Logger
	if log == nil {
		log = logger.NopLogger
	}
	openTable := p.OpenTable
	if openTable == nil {
		openTable = OpenInMemTable
	}

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		CounterRuns.WithLabelValues(outcome).Inc()
	}()

	entityTable, err := openTable("entities")
	if err != nil {
		return nil, errors.Mark(err, errors.ErrTable, "opening entity table")
	}
	defer closeTable(entityTable, "entity", &err)

	relationTable, err := openTable("relations")
	if err != nil {
		return nil, errors.Mark(err, errors.ErrTable, "opening relation table")
	}
	defer closeTable(relationTable, "relation", &err)

	h := blake3.New()
	e := &interner{emitter: emitter{sink: entities, tag: tagEntity, hash: h}, table: entityTable, counter: CounterEntities.Inc}
	r := &interner{emitter: emitter{sink: relations, tag: tagRelation, hash: h}, table: relationTable, counter: CounterRelations.Inc}
	t := &emitter{sink: triples, tag: tagTriple, hash: h}

	start := time.Now()
	lastProgress := start
	var n uint64
	for {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if p.ProgressInterval > 0 && time.Since(lastProgress) >= p.ProgressInterval {
				lastProgress = time.Now()
				log.Infof("processed %d statements: %d entities, %d relations", n, entityTable.Len(), relationTable.Len())
			}
		}

		st, err := src.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Mark(err, errors.ErrSourceRead, fmt.Sprintf("reading statement %d", n+1))
		}
		n++
		CounterStatements.Inc()

		// Subject, predicate, object: this order fixes ID assignment when
		// a statement repeats a key, e.g. a self-loop.
		sid, err := e.resolve(st.Subject)
		if err != nil {
			return nil, errors.WithMessagef(err, "statement %d subject", n)
		}
		pid, err := r.resolve(st.Predicate)
		if err != nil {
			return nil, errors.WithMessagef(err, "statement %d predicate", n)
		}
		oid, err := e.resolve(st.Object)
		if err != nil {
			return nil, errors.WithMessagef(err, "statement %d object", n)
		}

		if err := t.emit(formatID(sid), formatID(pid), formatID(oid)); err != nil {
			return nil, errors.WithMessagef(err, "statement %d triple", n)
		}
	}

	sum = &Summary{
		Statements: n,
		Entities:   entityTable.Len(),
		Relations:  relationTable.Len(),
		Checksum:   hex.EncodeToString(h.Sum(nil)),
		Elapsed:    time.Since(start),
	}
	log.Debugf("interning done: %s", sum)
	return sum, nil
}

func closeTable(t IDTable, name string, err *error) {
	if cerr := t.Close(); cerr != nil && *err == nil {
		*err = errors.Mark(cerr, errors.ErrTable, "closing "+name+" table")
	}
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// emitter appends records to a sink and folds them into the run checksum.
type emitter struct {
	sink RecordSink
	tag  byte
	hash io.Writer
}

func (em *emitter) emit(fields ...string) error {
	if err := em.sink.Append(fields...); err != nil {
		return errors.Mark(err, errors.ErrSinkWrite, "appending record")
	}
	// Length-prefixed fields keep ("ab","c") and ("a","bc") apart.
	var hdr [9]byte
	hdr[0] = em.tag
	em.hash.Write(hdr[:1])
	for _, f := range fields {
		binary.BigEndian.PutUint64(hdr[1:], uint64(len(f)))
		em.hash.Write(hdr[1:])
		io.WriteString(em.hash, f)
	}
	return nil
}

// interner resolves keys against one table, emitting a mapping record for
// every newly assigned ID.
type interner struct {
	emitter
	table   IDTable
	counter func()
}

func (in *interner) resolve(key string) (uint64, error) {
	id, created, err := in.table.Intern(key)
	if err != nil {
		return 0, errors.Mark(err, errors.ErrTable, "interning key")
	}
	if !created {
		return id, nil
	}
	if err := in.emit(key, formatID(id)); err != nil {
		return 0, err
	}
	in.counter()
	return id, nil
}
