package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	policyDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_policy_decisions_total",
		Help: "Authorization decisions for update and delete operations",
	}, []string{"kind", "decision"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
