package metropolis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutationsProposed counts proposals by mutation kind
	mutationsProposed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_mutations_proposed_total",
		Help: "Total Metropolis proposals by mutation kind",
	}, []string{"kind"})

	// mutationsAccepted counts accepted proposals by mutation kind
	mutationsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_mutations_accepted_total",
		Help: "Total accepted Metropolis proposals by mutation kind",
	}, []string{"kind"})

	// zeroProposals counts proposals that evaluated to no contribution
	zeroProposals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlt_zero_proposals_total",
		Help: "Total Metropolis proposals with zero contribution",
	})
)
