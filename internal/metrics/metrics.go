// Package metrics holds the prometheus collectors of the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for authentication attempts.
const (
	OutcomeSuccess           = "success"
	OutcomeInvalidCredential = "invalid_credential"
	OutcomeBadToken          = "bad_token"
	OutcomeDeviceMismatch    = "device_mismatch"
	OutcomeError             = "error"
)

// Ticket kinds.
const (
	TicketLoginToken = "login_token"
	TicketGrant      = "device_grant"
	TicketReactivate = "reactivate"
)

// AuthAttempts counts login, verify and combo attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pancake_auth_attempts_total",
		Help: "Total number of authentication attempts",
	},
	[]string{"operation", "outcome"},
)

// TicketsIssued counts newly minted login tokens and tickets.
var TicketsIssued = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pancake_tickets_issued_total",
		Help: "Total number of newly generated login tokens and tickets",
	},
	[]string{"kind"},
)

// BookkeepingFailures counts store writes that failed after a successful
// authentication and were not surfaced to the client.
var BookkeepingFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pancake_bookkeeping_failures_total",
		Help: "Total number of swallowed session bookkeeping failures",
	},
	[]string{"step"},
)

// RegisterMetrics registers the collectors with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(TicketsIssued)
	reg.MustRegister(BookkeepingFailures)
}

func RecordAttempt(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

func RecordTicket(kind string) {
	TicketsIssued.WithLabelValues(kind).Inc()
}

func RecordBookkeepingFailure(step string) {
	BookkeepingFailures.WithLabelValues(step).Inc()
}
