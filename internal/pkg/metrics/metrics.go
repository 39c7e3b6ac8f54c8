package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScreeningsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_screenings_completed_total",
			Help: "Total number of completed screening sessions by outcome",
		},
		[]string{"outcome"},
	)

	CodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_verification_codes_issued_total",
			Help: "Total number of verification codes issued by code type",
		},
		[]string{"code_type"},
	)

	CodeRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_code_redemptions_total",
			Help: "Total number of partner redemption attempts by result",
		},
		[]string{"result"},
	)

	CodesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_verification_codes_swept_total",
			Help: "Total number of unused codes relabeled expired by the sweeper",
		},
	)

	OutcomesArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_outcome_snapshots_archived_total",
			Help: "Total number of outcome snapshots written to the retention archive",
		},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_event_publish_failures_total",
			Help: "Total number of domain event publishes that failed by event type",
		},
		[]string{"event_type"},
	)
)

// CodeRedemptions result label values. They match the partner-facing
// error strings so dashboards and integrations speak the same names.
const (
	RedemptionResultSuccess     = "success"
	RedemptionResultNotFound    = "not_found"
	RedemptionResultAlreadyUsed = "already_used"
	RedemptionResultExpired     = "expired"
)
