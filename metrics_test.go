// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap_test

import (
	"context"
	"io"
	"testing"

	"github.com/molecula/triplemap"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	statements := testutil.ToFloat64(triplemap.CounterStatements)
	entities := testutil.ToFloat64(triplemap.CounterEntities)
	relations := testutil.ToFloat64(triplemap.CounterRelations)
	ok := testutil.ToFloat64(triplemap.CounterRuns.WithLabelValues("ok"))
	failed := testutil.ToFloat64(triplemap.CounterRuns.WithLabelValues("error"))

	mustProcess(t, st("A", "knows", "B"), st("B", "knows", "C"), st("A", "likes", "A"))

	if d := testutil.ToFloat64(triplemap.CounterStatements) - statements; d != 3 {
		t.Fatalf("statements: expected 3, got %v", d)
	}
	if d := testutil.ToFloat64(triplemap.CounterEntities) - entities; d != 3 {
		t.Fatalf("entities: expected 3, got %v", d)
	}
	if d := testutil.ToFloat64(triplemap.CounterRelations) - relations; d != 2 {
		t.Fatalf("relations: expected 2, got %v", d)
	}
	if d := testutil.ToFloat64(triplemap.CounterRuns.WithLabelValues("ok")) - ok; d != 1 {
		t.Fatalf("ok runs: expected 1, got %v", d)
	}

	p := &triplemap.Pipeline{}
	src := &failingSource{err: io.ErrUnexpectedEOF}
	if _, err := p.Process(context.Background(), src, &recordSink{}, &recordSink{}, &recordSink{}); err == nil {
		t.Fatal("expected error")
	}
	if d := testutil.ToFloat64(triplemap.CounterRuns.WithLabelValues("error")) - failed; d != 1 {
		t.Fatalf("failed runs: expected 1, got %v", d)
	}
}
