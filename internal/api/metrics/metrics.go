// Package metrics defines and registers all custom Prometheus metrics for the
// twin API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const namespace = "twin"

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Labels:
//   - method: "farcaster" or "wallet"
//   - result: "ok", or the failure class ("invalid_argument", "unauthorized", "forbidden", "conflict", "error")
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// SignInDuration measures sign-in latency including upstream verification.
var SignInDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sign_in_duration_seconds",
		Help:      "Duration of sign-in requests from body bind to cookie issuance.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// GateDecisionsTotal counts request gate outcomes.
// Label:
//   - result: "allowed", "missing", "invalid", or "forbidden"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of session gate decisions, labelled by result.",
	},
	[]string{"result"},
)

// ── Webhook metrics ───────────────────────────────────────────────────────────

// WebhookEventsTotal counts webhook deliveries.
// Labels:
//   - event: the event type, or "unknown" before verification
//   - result: "ok", "duplicate", "invalid", "unauthorized", or "error"
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of webhook deliveries, by event and result.",
	},
	[]string{"event", "result"},
)

// NotificationsSentTotal counts push notification attempts by provider verdict.
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of push notifications attempted, by result.",
	},
	[]string{"result"},
)

// ── Name resolution metrics ───────────────────────────────────────────────────

// NameResolutionsTotal counts processed name resolution jobs.
// Label:
//   - result: "ok" or "error"
var NameResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "name_resolutions_total",
		Help:      "Total number of wallet name resolution jobs processed.",
	},
	[]string{"result"},
)

// ObserveNameResolution records the outcome of one name resolution job.
func ObserveNameResolution(err error) {
	if err != nil {
		NameResolutionsTotal.WithLabelValues("error").Inc()
		return
	}
	NameResolutionsTotal.WithLabelValues("ok").Inc()
}

type instrumentedNotifier struct {
	next ports.Notifier
}

// InstrumentNotifier counts every send made through n by its result.
func InstrumentNotifier(n ports.Notifier) ports.Notifier {
	return instrumentedNotifier{next: n}
}

func (i instrumentedNotifier) Send(ctx context.Context, details domain.NotificationDetails, n domain.Notification) (domain.NotificationResult, error) {
	res, err := i.next.Send(ctx, details, n)
	NotificationsSentTotal.WithLabelValues(string(res)).Inc()
	return res, err
}
