package fshc

import (
	"sync/atomic"
	"time"
)

// Metrics tracks compilation metrics using lock-free atomic operations.
// All methods are safe for concurrent use so that parallel test runs and
// batch CLIs can share one instance.
type Metrics struct {
	// Export counts
	entitiesExported atomic.Uint64
	entitiesFailed   atomic.Uint64

	// Fishing counts
	fishCalls  atomic.Uint64
	fishMisses atomic.Uint64

	// Timing (stored as nanoseconds)
	exportTimeTotal atomic.Uint64

	// Issue counts by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64
	infosTotal    atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordExport records a completed entity export.
func (m *Metrics) RecordExport(duration time.Duration, ok bool) {
	if ok {
		m.entitiesExported.Add(1)
	} else {
		m.entitiesFailed.Add(1)
	}
	m.exportTimeTotal.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are non-negative
}

// RecordFish records one fishing lookup and whether it hit.
func (m *Metrics) RecordFish(found bool) {
	m.fishCalls.Add(1)
	if !found {
		m.fishMisses.Add(1)
	}
}

// RecordIssue records an issue by severity.
func (m *Metrics) RecordIssue(severity IssueSeverity) {
	switch severity {
	case SeverityError, SeverityFatal:
		m.errorsTotal.Add(1)
	case SeverityWarning:
		m.warningsTotal.Add(1)
	default:
		m.infosTotal.Add(1)
	}
}

// Snapshot is a point-in-time copy of the metrics.
type MetricsSnapshot struct {
	EntitiesExported uint64        `json:"entitiesExported"`
	EntitiesFailed   uint64        `json:"entitiesFailed"`
	FishCalls        uint64        `json:"fishCalls"`
	FishMisses       uint64        `json:"fishMisses"`
	ExportTime       time.Duration `json:"exportTime"`
	Errors           uint64        `json:"errors"`
	Warnings         uint64        `json:"warnings"`
	Infos            uint64        `json:"infos"`
}

// Snapshot returns a consistent-enough copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EntitiesExported: m.entitiesExported.Load(),
		EntitiesFailed:   m.entitiesFailed.Load(),
		FishCalls:        m.fishCalls.Load(),
		FishMisses:       m.fishMisses.Load(),
		ExportTime:       time.Duration(m.exportTimeTotal.Load()), //nolint:gosec // stored from non-negative durations
		Errors:           m.errorsTotal.Load(),
		Warnings:         m.warningsTotal.Load(),
		Infos:            m.infosTotal.Load(),
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.entitiesExported.Store(0)
	m.entitiesFailed.Store(0)
	m.fishCalls.Store(0)
	m.fishMisses.Store(0)
	m.exportTimeTotal.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.infosTotal.Store(0)
}
