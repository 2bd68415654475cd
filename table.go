// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap

import (
	"io"

	"github.com/molecula/triplemap/errors"
)

// Table errors.
var (
	ErrTableClosed = errors.New(errors.ErrTable, "identifier table closed")
)

// IDTable interns string keys as dense identifiers.
//
// The first key interned gets 0, the next new key 1, and so on: the ID of a
// new key is always the number of keys already in the table, so the table is
// a bijection onto [0, Len()). There is no separate counter to drift.
type IDTable interface {
	io.Closer

	// Intern returns the ID of key, assigning the next ID if the key has
	// not been seen. created reports whether the ID was assigned by this
	// call.
	Intern(key string) (id uint64, created bool, err error)

	// Len returns the number of keys in the table.
	Len() uint64
}

// OpenTableFunc opens a new, empty IDTable. name distinguishes the tables
// of a single run ("entities", "relations").
type OpenTableFunc func(name string) (IDTable, error)

var _ OpenTableFunc = OpenInMemTable

// OpenInMemTable returns a new InMemTable. Implements OpenTableFunc.
func OpenInMemTable(name string) (IDTable, error) {
	return NewInMemTable(), nil
}

// InMemTable is an in-memory IDTable. Memory grows with the number of
// distinct keys. It is not safe for concurrent use.
type InMemTable struct {
	idsByKey map[string]uint64
	keysByID []string
}

var _ IDTable = &InMemTable{}

// NewInMemTable returns a new, empty InMemTable.
func NewInMemTable() *InMemTable {
	return &InMemTable{
		idsByKey: make(map[string]uint64),
	}
}

func (t *InMemTable) Intern(key string) (uint64, bool, error) {
	if t.idsByKey == nil {
		return 0, false, ErrTableClosed
	}
	if id, ok := t.idsByKey[key]; ok {
		return id, false, nil
	}
	id := uint64(len(t.keysByID))
	t.idsByKey[key] = id
	t.keysByID = append(t.keysByID, key)
	return id, true, nil
}

func (t *InMemTable) Len() uint64 {
	return uint64(len(t.keysByID))
}

// Lookup returns the ID of key without assigning one.
func (t *InMemTable) Lookup(key string) (uint64, bool) {
	id, ok := t.idsByKey[key]
	return id, ok
}

// Key returns the key assigned id.
func (t *InMemTable) Key(id uint64) (string, bool) {
	if id >= uint64(len(t.keysByID)) {
		return "", false
	}
	return t.keysByID[id], true
}

// Close drops the table contents. Further calls to Intern fail.
func (t *InMemTable) Close() error {
	t.idsByKey = nil
	t.keysByID = nil
	return nil
}
