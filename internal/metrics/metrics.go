// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the worker's Prometheus instrumentation. None of
// the example pack's teachers ship metrics, so these collectors are named
// and scoped the way prometheus/client_golang's own examples do: one
// package-level registry, plain Counter/Gauge/Histogram vars, a Handler for
// mounting on the metrics listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const namespace = "vgcore"

var (
	// ChangeCount tracks the store's monotonic change counter as a gauge
	// mirror, so a scrape can show the current value without a command
	// round-trip (§4.3 "change counter").
	ChangeCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "change_count",
		Help:      "Current value of the store's monotonic change counter.",
	})

	// QuadsIngested counts quads added to the store, labeled by the command
	// responsible (syncBatch, syncLoad, importSerialized, loadFromUrl,
	// runReasoning).
	QuadsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quads_ingested_total",
		Help:      "Total quads added to the store, labeled by originating command.",
	}, []string{"command"})

	// QuadsRemoved counts quads removed from the store, labeled the same way.
	QuadsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quads_removed_total",
		Help:      "Total quads removed from the store, labeled by originating command.",
	}, []string{"command"})

	// ReasoningRuns counts runReasoning invocations, labeled by whether a
	// ruleset was actually fetched and used (§4.8 step 11 fallback).
	ReasoningRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reasoning_runs_total",
		Help:      "Total runReasoning invocations, labeled by usedReasoner.",
	}, []string{"used_reasoner"})

	// ReasoningDuration observes total runReasoning wall-clock duration.
	ReasoningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reasoning_duration_seconds",
		Help:      "Wall-clock duration of runReasoning invocations.",
		Buckets:   prometheus.DefBuckets,
	})

	// CommandDuration observes per-command dispatch latency.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Dispatch latency of worker commands, labeled by command name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"command"})

	// EventsEmitted counts broker deliveries, labeled by event kind.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_emitted_total",
		Help:      "Total events emitted through the broker, labeled by event kind.",
	}, []string{"kind"})
)

// Handler returns the HTTP handler to mount on the metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
