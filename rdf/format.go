// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package rdf turns serialized knowledge graphs into statement sources.
package rdf

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
)

// Format names a graph serialization.
type Format string

const (
	FormatRDFXML   Format = "rdfxml"
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
	FormatJSONLD   Format = "jsonld"
	FormatTSV      Format = "tsv"
	FormatCSV      Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatRDFXML, FormatTurtle, FormatNTriples, FormatNQuads, FormatJSONLD, FormatTSV, FormatCSV}

var formatsByExt = map[string]Format{
	".rdf":    FormatRDFXML,
	".owl":    FormatRDFXML,
	".xml":    FormatRDFXML,
	".ttl":    FormatTurtle,
	".nt":     FormatNTriples,
	".nq":     FormatNQuads,
	".jsonld": FormatJSONLD,
	".json":   FormatJSONLD,
	".tsv":    FormatTSV,
	".tab":    FormatTSV,
	".csv":    FormatCSV,
}

// ParseFormat returns the format called name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case "xml", "rdf/xml":
		return FormatRDFXML, nil
	case "ttl":
		return FormatTurtle, nil
	case "nt", "n-triples":
		return FormatNTriples, nil
	case "nq", "n-quads":
		return FormatNQuads, nil
	case "json-ld":
		return FormatJSONLD, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrUnknownFormat, "unknown format %q", name)
}

// FormatFor guesses the format of path from its extension.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatsByExt[ext]; ok {
		return f, nil
	}
	return "", errors.Newf(errors.ErrUnknownFormat, "cannot infer format of %q from extension %q", path, ext)
}

// NewSource returns a StatementSource decoding r as format. Closing the
// source closes r.
func NewSource(r io.ReadCloser, format Format) (triplemap.StatementSource, error) {
	switch format {
	case FormatRDFXML, FormatTurtle:
		return NewTripleSource(r, format), nil
	case FormatNTriples, FormatNQuads, FormatJSONLD:
		return NewQuadSource(r, format), nil
	case FormatTSV:
		return NewDelimitedSource(r, '\t'), nil
	case FormatCSV:
		return NewDelimitedSource(r, ','), nil
	}
	return nil, errors.Newf(errors.ErrUnknownFormat, "no reader for format %q", format)
}
