// Package metrics defines and registers the Prometheus metrics of the
// user-management API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry on package init via promauto;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_management"

// ── Account metrics ───────────────────────────────────────────────────────────

// AccountActionsTotal counts account actions by outcome.
// Labels:
//   - action: register, password_reset_request, password_reset_confirm,
//     password_change, verify_email, login
//   - outcome: ok, invalid, not_found, forbidden, unauthorized, error
var AccountActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_actions_total",
		Help:      "Total number of account actions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// TokenValidationsTotal counts uid/token link checks.
// Labels:
//   - purpose: password_reset or email_verification
//   - result: valid, invalid, unknown_user
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of action-token validations, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailDispatchedTotal counts mail delivery attempts made by the dispatcher.
// Labels:
//   - kind: verification, password_reset
//   - result: sent, failed
var MailDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_dispatched_total",
		Help:      "Total number of emails handed to the mail provider, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueRejectedTotal counts messages refused because a worker queue was full.
var MailQueueRejectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_queue_rejected_total",
		Help:      "Total number of emails rejected because the dispatch queue was full.",
	},
)

// MailQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request handling time.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/users/:id")
//   - code: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method, route and status code.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "code"},
)
