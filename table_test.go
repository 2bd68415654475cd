// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap_test

import (
	"testing"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
)

func TestInMemTable_Intern(t *testing.T) {
	tbl := triplemap.NewInMemTable()

	// Ensure initial key translates to the first ID.
	if id, created, err := tbl.Intern("foo"); err != nil {
		t.Fatal(err)
	} else if !created {
		t.Fatal("expected foo to be created")
	} else if got, want := id, uint64(0); got != want {
		t.Fatalf("Intern()=%d, want %d", got, want)
	}

	// Ensure next key autoincrements.
	if id, _, err := tbl.Intern("bar"); err != nil {
		t.Fatal(err)
	} else if got, want := id, uint64(1); got != want {
		t.Fatalf("Intern()=%d, want %d", got, want)
	}

	// Ensure reinterning an existing key returns the original ID.
	if id, created, err := tbl.Intern("foo"); err != nil {
		t.Fatal(err)
	} else if created {
		t.Fatal("expected foo to be reused")
	} else if got, want := id, uint64(0); got != want {
		t.Fatalf("Intern()=%d, want %d", got, want)
	}

	// Ensure the empty string is an ordinary key.
	if id, created, err := tbl.Intern(""); err != nil {
		t.Fatal(err)
	} else if !created || id != 2 {
		t.Fatalf("Intern(\"\")=%d,%v, want 2,true", id, created)
	}

	if got, want := tbl.Len(), uint64(3); got != want {
		t.Fatalf("Len()=%d, want %d", got, want)
	}
}

func TestInMemTable_Key(t *testing.T) {
	tbl := triplemap.NewInMemTable()
	for _, k := range []string{"a", "b", "c"} {
		if _, _, err := tbl.Intern(k); err != nil {
			t.Fatal(err)
		}
	}

	if key, ok := tbl.Key(1); !ok || key != "b" {
		t.Fatalf("Key(1)=%q,%v, want b,true", key, ok)
	}
	if _, ok := tbl.Key(3); ok {
		t.Fatal("expected Key(3) to be missing")
	}
	if id, ok := tbl.Lookup("c"); !ok || id != 2 {
		t.Fatalf("Lookup(c)=%d,%v, want 2,true", id, ok)
	}
	if _, ok := tbl.Lookup("d"); ok {
		t.Fatal("Lookup must not assign IDs")
	}
	if got := tbl.Len(); got != 3 {
		t.Fatalf("Len()=%d after Lookup, want 3", got)
	}
}

func TestInMemTable_Closed(t *testing.T) {
	tbl := triplemap.NewInMemTable()
	if err := tbl.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tbl.Intern("foo"); !errors.Is(err, errors.ErrTable) {
		t.Fatalf("expected table error, got %v", err)
	}
}
