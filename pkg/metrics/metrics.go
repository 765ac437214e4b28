// Package metrics defines the observability interfaces the core emits
// through, modeled on the teacher's pkg/metrics/pkg/metrics/prometheus
// split: a dependency-free interface package plus an optional
// Prometheus-backed implementation, so instrumented code never imports
// github.com/prometheus/client_golang directly.
//
// This is observability, not a caching policy, so recording counts here
// does not conflict with spec §1's "no caching policy beyond in-memory
// reuse during a single send" non-goal.
package metrics

import (
	"time"

	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

// FetchMetrics records fetch-adapter activity (spec §4.D).
type FetchMetrics interface {
	// ObserveBatch records one Adapter.Fetch call.
	ObserveBatch(kind string, size int, duration time.Duration)
	// ObserveRetry records a status.Code that triggered a retry anywhere in
	// the read or send path.
	ObserveRetry(code status.Code)
}

// SendMetrics records send-pipeline activity (spec §4.J).
type SendMetrics interface {
	// ObserveTransaction records one submitted transaction, by level kind
	// ("leaf", "node", "root", "distribution").
	ObserveTransaction(kind string, bytes int)
	// ObserveSend records a completed (or dry-run) send's final shape.
	ObserveSend(txCount int, costEstimate int64, duration time.Duration)
}

var (
	registeredFetch func() FetchMetrics
	registeredSend  func() SendMetrics
	enabled         bool
)

// Enable turns on metrics collection. Called once during process startup
// (by cmd/cashweb or an embedding application) after the Prometheus
// registry has been initialized; RegisterFetchConstructor/
// RegisterSendConstructor must have already run via the prometheus
// sub-package's init().
func Enable() { enabled = true }

// IsEnabled reports whether metrics collection is turned on.
func IsEnabled() bool { return enabled }

// RegisterFetchConstructor is called by pkg/metrics/prometheus's init() to
// wire its implementation in without this package importing it directly
// (avoids an import cycle, same indirection the teacher's pkg/metrics uses).
func RegisterFetchConstructor(ctor func() FetchMetrics) { registeredFetch = ctor }

// RegisterSendConstructor mirrors RegisterFetchConstructor for SendMetrics.
func RegisterSendConstructor(ctor func() SendMetrics) { registeredSend = ctor }

// NewFetchMetrics returns a FetchMetrics implementation, or nil if metrics
// are disabled or no implementation registered. All exported helper
// functions below are nil-safe, so callers never need to check.
func NewFetchMetrics() FetchMetrics {
	if !enabled || registeredFetch == nil {
		return nil
	}
	return registeredFetch()
}

// NewSendMetrics mirrors NewFetchMetrics for SendMetrics.
func NewSendMetrics() SendMetrics {
	if !enabled || registeredSend == nil {
		return nil
	}
	return registeredSend()
}

// ObserveBatch is a nil-safe helper so instrumented code doesn't need a
// guard before every call site.
func ObserveBatch(m FetchMetrics, kind string, size int, duration time.Duration) {
	if m != nil {
		m.ObserveBatch(kind, size, duration)
	}
}

// ObserveRetry is the nil-safe counterpart for FetchMetrics.ObserveRetry.
func ObserveRetry(m FetchMetrics, code status.Code) {
	if m != nil {
		m.ObserveRetry(code)
	}
}

// ObserveTransaction is the nil-safe counterpart for SendMetrics.ObserveTransaction.
func ObserveTransaction(m SendMetrics, kind string, bytes int) {
	if m != nil {
		m.ObserveTransaction(kind, bytes)
	}
}

// ObserveSend is the nil-safe counterpart for SendMetrics.ObserveSend.
func ObserveSend(m SendMetrics, txCount int, costEstimate int64, duration time.Duration) {
	if m != nil {
		m.ObserveSend(txCount, costEstimate, duration)
	}
}
