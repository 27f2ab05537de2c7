//  Copyright (c) 2025 Couchbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fielddata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for field data loading and the
// field data breaker. A nil *Metrics records nothing.
type Metrics struct {
	LoadsTotal        *prometheus.CounterVec
	LoadDuration      *prometheus.HistogramVec
	BreakerUsedBytes  prometheus.Gauge
	BreakerLimitBytes prometheus.Gauge
	BreakerTrips      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fielddata_loads_total",
				Help: "Field data loads by point format, resulting shape and result.",
			},
			[]string{"format", "shape", "result"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fielddata_load_duration_seconds",
				Help:    "Time spent loading field data for one field of one segment.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"format"},
		),
		BreakerUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fielddata_breaker_used_bytes",
				Help: "Bytes currently admitted by the field data breaker.",
			},
		),
		BreakerLimitBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fielddata_breaker_limit_bytes",
				Help: "Configured field data breaker limit, 0 when unlimited.",
			},
		),
		BreakerTrips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fielddata_breaker_trips_total",
				Help: "Admissions rejected by the field data breaker.",
			},
		),
	}

	reg.MustRegister(
		m.LoadsTotal,
		m.LoadDuration,
		m.BreakerUsedBytes,
		m.BreakerLimitBytes,
		m.BreakerTrips,
	)

	return m
}

// shapeNone labels loads that failed before a structure was built.
const shapeNone = "none"

func (m *Metrics) observeLoad(format PointFormat, shape string, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(format.String(), shape, result).Inc()
	m.LoadDuration.WithLabelValues(format.String()).Observe(took.Seconds())
}

func (m *Metrics) setBreakerUsed(used int64) {
	if m == nil {
		return
	}
	m.BreakerUsedBytes.Set(float64(used))
}

func (m *Metrics) setBreakerLimit(limit int64) {
	if m == nil {
		return
	}
	m.BreakerLimitBytes.Set(float64(limit))
}

func (m *Metrics) breakerTripped() {
	if m == nil {
		return
	}
	m.BreakerTrips.Inc()
}
