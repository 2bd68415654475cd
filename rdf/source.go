// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package rdf

import (
	"encoding/csv"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/nquads"
	knakk "github.com/knakk/rdf"
	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
)

// QuadSource reads N-Triples, N-Quads or JSON-LD with cayleygraph/quad.
// Graph labels are dropped: statements in different named graphs are
// treated as statements of one graph.
type QuadSource struct {
	r      quad.ReadCloser
	closer io.Closer
	n      int
}

var _ triplemap.StatementSource = &QuadSource{}

// NewQuadSource returns a source reading rc as format, which must be one
// of FormatNTriples, FormatNQuads or FormatJSONLD.
func NewQuadSource(rc io.ReadCloser, format Format) *QuadSource {
	var r quad.ReadCloser
	if format == FormatJSONLD {
		r = jsonld.NewReader(rc)
	} else {
		// Raw keeps typed literals as lexical form plus datatype instead
		// of converting them to native values.
		r = nquads.NewReader(rc, true)
	}
	return &QuadSource{r: r, closer: rc}
}

func (s *QuadSource) Next() (triplemap.Statement, error) {
	q, err := s.r.ReadQuad()
	if err == io.EOF {
		return triplemap.Statement{}, io.EOF
	} else if err != nil {
		return triplemap.Statement{}, errors.Wrapf(err, "decoding quad %d", s.n+1)
	}
	s.n++
	return triplemap.Statement{
		Subject:   quadTerm(q.Subject),
		Predicate: quadTerm(q.Predicate),
		Object:    quadTerm(q.Object),
	}, nil
}

func (s *QuadSource) Close() error {
	err := s.r.Close()
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// TripleSource reads RDF/XML or Turtle with knakk/rdf.
type TripleSource struct {
	dec    knakk.TripleDecoder
	closer io.Closer
	n      int
}

var _ triplemap.StatementSource = &TripleSource{}

// NewTripleSource returns a source reading rc as FormatRDFXML or
// FormatTurtle.
func NewTripleSource(rc io.ReadCloser, format Format) *TripleSource {
	f := knakk.RDFXML
	if format == FormatTurtle {
		f = knakk.Turtle
	}
	return &TripleSource{dec: knakk.NewTripleDecoder(rc, f), closer: rc}
}

func (s *TripleSource) Next() (triplemap.Statement, error) {
	t, err := s.dec.Decode()
	if err == io.EOF {
		return triplemap.Statement{}, io.EOF
	} else if err != nil {
		return triplemap.Statement{}, errors.Wrapf(err, "decoding triple %d", s.n+1)
	}
	s.n++
	return triplemap.Statement{
		Subject:   knakkTerm(t.Subj),
		Predicate: knakkTerm(t.Pred),
		Object:    knakkTerm(t.Obj),
	}, nil
}

func (s *TripleSource) Close() error {
	return s.closer.Close()
}

// DelimitedSource reads one statement per row of a delimited file:
// subject, predicate, object. Empty lines are skipped; every other line,
// including one starting with '#', is a statement.
type DelimitedSource struct {
	r      *csv.Reader
	closer io.Closer
}

var _ triplemap.StatementSource = &DelimitedSource{}

// NewDelimitedSource returns a source reading rows of three fields
// separated by comma.
func NewDelimitedSource(rc io.ReadCloser, comma rune) *DelimitedSource {
	r := csv.NewReader(rc)
	r.Comma = comma
	r.FieldsPerRecord = 3
	r.ReuseRecord = true
	if comma == '\t' {
		// Tab separated files rarely quote; treat quotes as data.
		r.LazyQuotes = true
	}
	return &DelimitedSource{r: r, closer: rc}
}

func (s *DelimitedSource) Next() (triplemap.Statement, error) {
	row, err := s.r.Read()
	if err == io.EOF {
		return triplemap.Statement{}, io.EOF
	} else if err != nil {
		return triplemap.Statement{}, errors.Wrap(err, "reading row")
	}
	return triplemap.Statement{Subject: row[0], Predicate: row[1], Object: row[2]}, nil
}

func (s *DelimitedSource) Close() error {
	return s.closer.Close()
}
