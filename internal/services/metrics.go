package services

import "github.com/prometheus/client_golang/prometheus"

var (
	consumptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_consumptions_total",
			Help: "Credit consumption attempts by pool and outcome.",
		},
		[]string{"source", "outcome"},
	)
	fulfillmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_fulfillments_total",
			Help: "Payment fulfillment attempts by entry point and outcome.",
		},
		[]string{"channel", "outcome"},
	)
	creditsGrantedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_purchased_granted_total",
			Help: "Purchased credits added to accounts.",
		},
	)
)

func init() {
	prometheus.MustRegister(consumptionsTotal, fulfillmentsTotal, creditsGrantedTotal)
}
