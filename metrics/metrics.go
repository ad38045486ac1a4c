/*
 * metrics.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package metrics counts what happens during a run, in Prometheus format. The metrics
//live in their own registry and are written to a file at the end of the run, in
//the text format used by the node exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//Metrics contains the collectors of one run.
type Metrics struct {
	reg      *prometheus.Registry
	segments *prometheus.CounterVec
	retries  prometheus.Counter
	guards   *prometheus.CounterVec
	frames   prometheus.Counter
	stage    *prometheus.HistogramVec
	breaks   prometheus.Counter
}

//New returns a fresh set of collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		segments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gomsd_segments_total",
			Help: "Segments processed, by final status",
		}, []string{"status"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Name: "gomsd_retries_total",
			Help: "Segments retried after a transient error",
		}),
		guards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gomsd_guard_events_total",
			Help: "Statistics set to zero because they could not be computed reliably",
		}, []string{"quantity"}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "gomsd_frames_total",
			Help: "Frames read from all segments",
		}),
		stage: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gomsd_stage_duration_seconds",
			Help:    "Time spent in each stage of a segment",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45 min
		}, []string{"stage"}),
		breaks: f.NewCounter(prometheus.CounterOpts{
			Name: "gomsd_continuity_breaks_total",
			Help: "Segments that could not continue the unwrapping of a failed predecessor",
		}),
	}
}

//Segment counts a segment with the given final status (ok, failed, skipped, cancelled, cached).
//Nil-safe, as are all the methods of Metrics.
func (m *Metrics) Segment(status string) {
	if m == nil {
		return
	}
	m.segments.WithLabelValues(status).Inc()
}

//Retry counts a retry.
func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

//Guard counts a guarded value of the given quantity.
func (m *Metrics) Guard(quantity string) {
	if m == nil {
		return
	}
	m.guards.WithLabelValues(quantity).Inc()
}

//Frames adds n frames to the count.
func (m *Metrics) Frames(n int) {
	if m == nil {
		return
	}
	m.frames.Add(float64(n))
}

//ContinuityBreak counts a segment that had to restart the unwrapping.
func (m *Metrics) ContinuityBreak() {
	if m == nil {
		return
	}
	m.breaks.Inc()
}

//Since observes the time elapsed since start for stage.
func (m *Metrics) Since(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stage.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

//Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

//WriteTextfile writes all the metrics to filename.
func (m *Metrics) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.reg)
}
