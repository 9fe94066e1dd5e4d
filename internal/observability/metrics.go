package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_checks_total",
			Help: "Total eligibility pipeline runs by outcome and deciding gate",
		},
		[]string{"outcome", "gate"},
	)

	CapacityRaceLosses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capacity_race_losses_total",
			Help: "Writes rejected by the authoritative capacity check after the advisory check passed",
		},
	)

	ParticipationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participations_written_total",
			Help: "Participation records created or updated, by kind",
		},
		[]string{"kind"},
	)
)
