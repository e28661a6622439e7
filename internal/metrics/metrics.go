// Package metrics exposes Prometheus counters for the drawer engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawer_sessions_opened_total",
		Help: "Number of drawer sessions opened.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawer_sessions_closed_total",
		Help: "Number of drawer sessions closed.",
	})

	EntriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drawer_ledger_entries_total",
		Help: "Ledger entries appended, by category.",
	}, []string{"category"})

	DiscrepanciesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawer_discrepancies_total",
		Help: "Sessions whose replayed balance diverged from the cash-only expectation at close.",
	})
)
