// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap

import "io"

// Statement is one subject-predicate-object edge of a knowledge graph. The
// three terms are opaque strings; two terms are the same entity or relation
// exactly when the strings are equal.
type Statement struct {
	Subject   string
	Predicate string
	Object    string
}

// StatementSource yields statements in a single forward pass.
//
// Next returns io.EOF once the sequence is exhausted. Any other error means
// the source could not be read and the pass must be abandoned. Sources are
// not safe for concurrent use.
type StatementSource interface {
	Next() (Statement, error)
	Close() error
}

// SliceSource is a StatementSource over statements already in memory.
type SliceSource struct {
	stmts []Statement
	pos   int
}

var _ StatementSource = &SliceSource{}

// NewSliceSource returns a source yielding stmts in order.
func NewSliceSource(stmts ...Statement) *SliceSource {
	return &SliceSource{stmts: stmts}
}

func (s *SliceSource) Next() (Statement, error) {
	if s.pos >= len(s.stmts) {
		return Statement{}, io.EOF
	}
	st := s.stmts[s.pos]
	s.pos++
	return st, nil
}

func (s *SliceSource) Close() error { return nil }

// RecordSink accepts ordered field tuples. Close is called exactly once,
// after the last Append, and releases whatever the sink holds.
type RecordSink interface {
	Append(fields ...string) error
	Close() error
}
