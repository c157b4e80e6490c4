package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/cart"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_mutations_total",
			Help:      "Total number of applied cart mutations",
		},
		[]string{"op"},
	)

	cartSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "cart_sessions_active",
			Help:      "Number of cart sessions held in memory",
		},
	)

	checkoutOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_outcomes_total",
			Help:      "Checkout attempts by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "webhook_events_total",
			Help:      "Verified webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// Checkout stages and outcomes used as metric labels.
const (
	stageBegin    = "begin"
	stageSession  = "session"
	stageReturn   = "return"
	stageDonation = "donation"
	stageThanks   = "donation_return"

	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
	outcomePending = "pending"
)

func recordCheckout(stage, outcome string) {
	checkoutOutcomesTotal.WithLabelValues(stage, outcome).Inc()
}

// metricsObserver counts cart mutations.
func metricsObserver(_ context.Context, change cart.Change) {
	cartMutationsTotal.WithLabelValues(string(change.Op)).Inc()
}
