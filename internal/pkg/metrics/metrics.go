/*
Copyright 2025 The Catalog Ingestor contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes the Prometheus metrics of the catalog ingestor.
// All collectors are registered on the controller-runtime registry and
// served by the manager's metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	// Namespace is the Prometheus metrics namespace of the ingestor.
	Namespace = "catalog_ingestor"
)

// Run results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// Drop reasons.
const (
	ReasonNameTooLong     = "name_too_long"
	ReasonMissingSystem   = "missing_system"
	ReasonMissingMapping  = "missing_mapping"
	ReasonMissingLookup   = "missing_lookup"
	ReasonDuplicate       = "duplicate"
	ReasonInvalidTemplate = "invalid_template"
)

// Namespace lookup results.
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupFailure  = "failure"
	LookupNotFound = "not_found"
)

var (
	// RunsTotal counts provider runs per result.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Total number of entity provider runs",
		},
		[]string{"provider", "result"},
	)

	// RunDuration measures the duration of provider runs in seconds.
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of entity provider runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	// Entities is the size of the last published record set.
	Entities = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "entities",
			Help:      "Number of records published by the last successful run",
		},
		[]string{"provider"},
	)

	// EntitiesDropped counts records that were generated but not published.
	EntitiesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "entities_dropped_total",
			Help:      "Total number of generated records that were dropped",
		},
		[]string{"provider", "reason"},
	)

	// FetchErrors counts failed list calls per cluster and resource path.
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed resource fetches",
		},
		[]string{"cluster", "resource"},
	)

	// NamespaceLookups counts namespace owner lookups per result.
	NamespaceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "namespace_lookups_total",
			Help:      "Total number of namespace owner lookups",
		},
		[]string{"result"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		RunsTotal,
		RunDuration,
		Entities,
		EntitiesDropped,
		FetchErrors,
		NamespaceLookups,
	)
}

// ObserveRun records the outcome of a single provider run.
func ObserveRun(provider, result string, started time.Time) {
	RunsTotal.WithLabelValues(provider, result).Inc()
	RunDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}
