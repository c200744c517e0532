package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement run counters. Labels keep cardinality low: verdict for settled
// wagers, reason for skipped ones.
var (
	WagersSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookie_wagers_settled_total",
		Help: "Wagers settled by the settlement scheduler, by verdict.",
	}, []string{"verdict"})

	WagersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookie_wagers_skipped_total",
		Help: "Wagers left unresolved during settlement runs, by reason.",
	}, []string{"reason"})

	SettlementErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookie_settlement_errors_total",
		Help: "Per-wager errors encountered while applying settlement verdicts.",
	})

	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookie_provider_fetches_total",
		Help: "Result provider fetches, by outcome.",
	}, []string{"outcome"})
)
