// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package boltdb provides an on-disk identifier table for graphs whose
// vocabulary does not fit comfortably in memory.
package boltdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketKeys = []byte("keys")
	bucketIDs  = []byte("ids")
)

const (
	errFmtTableBucketNotFound = "boltdb: table bucket '%s' not found"

	// tableTransactionSize governs the number of new keys written in a
	// single write transaction before it is committed and a new one is
	// begun. Put cost grows with the transaction, but so does the payoff
	// of amortizing the commit.
	tableTransactionSize = 16384

	// Keys are stored with a one byte prefix, so the empty string is a
	// valid key. Keys too long for a bolt key are stored under their
	// BLAKE3 digest instead.
	prefixRaw    = 'k'
	prefixHashed = 'h'
	maxRawKey    = bolt.MaxKeySize - 1
)

// Ensure type implements interface.
var _ triplemap.IDTable = &Table{}

// Table is an IDTable persisted in a bolt database. IDs are dense and
// assigned in first-seen order, exactly like triplemap.InMemTable.
//
// Writes are batched in a long-running write transaction; Close commits
// it. A Table is not safe for concurrent use.
type Table struct {
	db   *bolt.DB
	tx   *bolt.Tx
	keys *bolt.Bucket
	ids  *bolt.Bucket

	n    uint64
	puts int

	// RemoveOnClose deletes the database file once closed.
	RemoveOnClose bool

	// FsyncEnabled makes every commit sync to disk.
	FsyncEnabled bool

	// File path to database file.
	Path string
}

// NewTable returns a new instance of Table. Set Path before calling Open.
func NewTable() *Table {
	return &Table{}
}

// OpenTable opens and initializes a bolt table at path.
func OpenTable(path string) (*Table, error) {
	t := NewTable()
	t.Path = path
	if err := t.Open(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewOpenTableFunc returns a triplemap.OpenTableFunc creating throwaway
// tables in dir, each in its own file that is removed on Close.
func NewOpenTableFunc(dir string) triplemap.OpenTableFunc {
	return func(name string) (triplemap.IDTable, error) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", dir)
		}
		f, err := os.CreateTemp(dir, name+"-*.db")
		if err != nil {
			return nil, errors.Wrap(err, "creating table file")
		}
		path := f.Name()
		if err := f.Close(); err != nil {
			return nil, errors.Wrap(err, "closing table file")
		}
		t := NewTable()
		t.Path = path
		t.RemoveOnClose = true
		if err := t.Open(); err != nil {
			os.Remove(path)
			return nil, err
		}
		return t, nil
	}
}

// NewKeepTableFunc returns a triplemap.OpenTableFunc creating tables named
// dir/<name>.db that outlive the run. An existing file of that name is
// replaced, so every run starts from empty tables.
func NewKeepTableFunc(dir string) triplemap.OpenTableFunc {
	return func(name string) (triplemap.IDTable, error) {
		path := filepath.Join(dir, name+".db")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "removing previous table %s", path)
		}
		return OpenTable(path)
	}
}

// Open opens the database file and starts the first write transaction.
// Keys already in the file keep their IDs.
func (t *Table) Open() (err error) {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0750); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(t.Path))
	} else if t.db, err = bolt.Open(t.Path, 0600, &bolt.Options{Timeout: 1 * time.Second, NoSync: !t.FsyncEnabled}); err != nil {
		return errors.Wrapf(err, "open file: %s", t.Path)
	}

	// Initialize buckets.
	if err := t.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKeys); err != nil {
			return err
		} else if _, err := tx.CreateBucketIfNotExists(bucketIDs); err != nil {
			return err
		}
		return nil
	}); err != nil {
		t.db.Close()
		return err
	}

	if err := t.begin(); err != nil {
		t.db.Close()
		return err
	}
	t.n = uint64(t.ids.Stats().KeyN)
	return nil
}

func (t *Table) begin() (err error) {
	if t.tx, err = t.db.Begin(true); err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if t.keys = t.tx.Bucket(bucketKeys); t.keys == nil {
		_ = t.tx.Rollback()
		return errors.Errorf(errFmtTableBucketNotFound, bucketKeys)
	}
	if t.ids = t.tx.Bucket(bucketIDs); t.ids == nil {
		_ = t.tx.Rollback()
		return errors.Errorf(errFmtTableBucketNotFound, bucketIDs)
	}
	t.puts = 0
	return nil
}

// commit commits the current write transaction.
func (t *Table) commit() error {
	tx := t.tx
	t.tx, t.keys, t.ids = nil, nil, nil
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// Intern returns the ID of key, assigning the next ID if needed.
func (t *Table) Intern(key string) (uint64, bool, error) {
	if t.tx == nil {
		return 0, false, triplemap.ErrTableClosed
	}

	boltKey := encodeKey(key)
	if v := t.keys.Get(boltKey); v != nil {
		id := btou64(v)
		if boltKey[0] == prefixHashed {
			if stored := t.ids.Get(v); !bytes.Equal(stored, []byte(key)) {
				return 0, false, errors.Errorf("boltdb: digest collision for key of length %d", len(key))
			}
		}
		return id, false, nil
	}

	id := t.n
	idBytes := u64tob(id)
	if err := t.keys.Put(boltKey, idBytes); err != nil {
		return 0, false, errors.Wrap(err, "putting key")
	} else if err := t.ids.Put(idBytes, []byte(key)); err != nil {
		return 0, false, errors.Wrap(err, "putting id")
	}
	t.n++

	if t.puts++; t.puts == tableTransactionSize {
		if err := t.commit(); err != nil {
			return 0, false, err
		}
		if err := t.begin(); err != nil {
			return 0, false, err
		}
	}
	return id, true, nil
}

// Len returns the number of keys in the table.
func (t *Table) Len() uint64 {
	return t.n
}

// Key returns the key assigned id, reading through the open transaction.
func (t *Table) Key(id uint64) (string, bool) {
	if t.tx == nil {
		return "", false
	}
	v := t.ids.Get(u64tob(id))
	if v == nil {
		return "", false
	}
	return string(v), true
}

// ForEach calls fn for every key in ID order. It stops at the first error
// returned by fn.
func (t *Table) ForEach(fn func(key string, id uint64) error) error {
	if t.tx == nil {
		return triplemap.ErrTableClosed
	}
	return forEach(t.ids, fn)
}

// ReadTable calls fn for every key of the table file at path in ID order.
// The file is opened read-only and never modified.
func ReadTable(path string, fn func(key string, id uint64) error) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return errors.Wrapf(err, "open file: %s", path)
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		ids := tx.Bucket(bucketIDs)
		if ids == nil {
			return errors.Errorf(errFmtTableBucketNotFound, bucketIDs)
		}
		return forEach(ids, fn)
	})
}

func forEach(ids *bolt.Bucket, fn func(key string, id uint64) error) error {
	c := ids.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if err := fn(string(v), btou64(k)); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of bytes in the data file.
func (t *Table) Size() int64 {
	if t.tx == nil {
		return 0
	}
	return t.tx.Size()
}

// Close commits pending writes and closes the underlying database.
func (t *Table) Close() (err error) {
	if t.db == nil {
		return nil
	}
	if t.tx != nil {
		err = t.commit()
	}
	if cerr := t.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	t.db = nil
	if t.RemoveOnClose {
		if rerr := os.Remove(t.Path); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

func (t *Table) String() string {
	return fmt.Sprintf("boltdb.Table{Path: %q, Len: %d}", t.Path, t.n)
}

func encodeKey(key string) []byte {
	if len(key) > maxRawKey {
		sum := blake3.Sum256([]byte(key))
		return append([]byte{prefixHashed}, sum[:]...)
	}
	b := make([]byte, 1+len(key))
	b[0] = prefixRaw
	copy(b[1:], key)
	return b
}

// u64tob encodes v to big endian encoding.
func u64tob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// btou64 decodes b from big endian encoding.
func btou64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
