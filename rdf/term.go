// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package rdf

import (
	"github.com/cayleygraph/quad"
	knakk "github.com/knakk/rdf"
)

const (
	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Terms are rendered as plain strings before interning:
//
//	IRI                      http://example.org/a
//	blank node               b0 (the label alone)
//	plain or xsd:string      lexical form
//	language tagged literal  lexical@lang
//	other typed literal      lexical^^datatype-IRI
//
// Identity is string equality on this rendering; no normalization of IRIs
// or literal values is performed.

func literal(lexical, lang, datatype string) string {
	switch {
	case lang != "":
		return lexical + "@" + lang
	case datatype == "" || datatype == xsdString || datatype == rdfLangString:
		return lexical
	}
	return lexical + "^^" + datatype
}

// quadTerm renders a cayley quad value.
func quadTerm(v quad.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case quad.IRI:
		return string(v)
	case quad.BNode:
		return string(v)
	case quad.String:
		return string(v)
	case quad.LangString:
		return literal(string(v.Value), v.Lang, "")
	case quad.TypedString:
		return literal(string(v.Value), "", string(v.Type))
	case quad.TypedStringer:
		ts := v.TypedString()
		return literal(string(ts.Value), "", string(ts.Type))
	}
	return v.String()
}

// knakkTerm renders a term decoded by github.com/knakk/rdf.
func knakkTerm(t knakk.Term) string {
	switch t := t.(type) {
	case nil:
		return ""
	case knakk.Literal:
		return literal(t.String(), t.Lang(), t.DataType.String())
	case knakk.Blank:
		return trimBlankPrefix(t.String())
	}
	return t.String()
}

func trimBlankPrefix(s string) string {
	if len(s) >= 2 && s[0] == '_' && s[1] == ':' {
		return s[2:]
	}
	return s
}
