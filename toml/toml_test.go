// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package toml_test

import (
	"testing"
	"time"

	"github.com/molecula/triplemap/toml"
	"github.com/spf13/pflag"
)

var _ pflag.Value = new(toml.Duration)

func TestDuration(t *testing.T) {
	var d toml.Duration
	if err := d.Set("1m30s"); err != nil {
		t.Fatal(err)
	} else if got, want := time.Duration(d), 90*time.Second; got != want {
		t.Fatalf("Set()=%v, want %v", got, want)
	}

	text, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	} else if got, want := string(text), "1m30s"; got != want {
		t.Fatalf("MarshalText()=%s, want %s", got, want)
	}

	if err := d.UnmarshalText([]byte("ten seconds")); err == nil {
		t.Fatal("expected parse error")
	}
}
