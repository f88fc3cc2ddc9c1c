package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WithdrawRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_withdraw_requests_total",
			Help: "Total withdrawal requests by outcome",
		},
		[]string{"outcome"},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_claims_total",
			Help: "Total claim attempts by outcome",
		},
		[]string{"outcome"},
	)

	CancelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_cancels_total",
			Help: "Total cancellations by outcome",
		},
		[]string{"outcome"},
	)

	CorruptRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_store_corrupt_records_total",
		Help: "Persisted withdrawal records skipped as unreadable",
	})

	ConfigRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_config_refresh_total",
			Help: "Vault config snapshot refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	ConfigRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vault_config_rate",
		Help: "Current LP-to-token rate numerator (denominator 1e6)",
	})

	ConfigWithdrawFeeBps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vault_config_withdraw_fee_bps",
		Help: "Current withdrawal fee in basis points",
	})
)
