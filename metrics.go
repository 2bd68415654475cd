// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package triplemap

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricStatements = "statements_total"
	MetricEntities   = "entities_total"
	MetricRelations  = "relations_total"
	MetricRuns       = "runs_total"
)

var CounterStatements = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "triplemap",
		Name:      MetricStatements,
		Help:      "Statements read from the statement source.",
	},
)

var CounterEntities = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "triplemap",
		Name:      MetricEntities,
		Help:      "Entity identifiers assigned.",
	},
)

var CounterRelations = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "triplemap",
		Name:      MetricRelations,
		Help:      "Relation identifiers assigned.",
	},
)

var CounterRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "triplemap",
		Name:      MetricRuns,
		Help:      "Pipeline runs by outcome.",
	},
	[]string{
		"outcome",
	},
)

func init() {
	prometheus.MustRegister(CounterStatements)
	prometheus.MustRegister(CounterEntities)
	prometheus.MustRegister(CounterRelations)
	prometheus.MustRegister(CounterRuns)
}
