package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	quizzy = "quizzy"

	jobsProcessedTotal    = "jobs_processed_total"
	jobDurationSeconds    = "job_duration_seconds"
	webhookDeliveryTotal  = "webhook_deliveries_total"
	jobsEnqueuedTotal     = "jobs_enqueued_total"

	queueLabel   = "queue"
	outcomeLabel = "outcome"
	targetLabel  = "target"
)

var jobsEnqueuedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: quizzy,
		Name:      jobsEnqueuedTotal,
		Help:      "number of jobs accepted by the submission API",
	},
	[]string{queueLabel},
)

var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: quizzy,
		Name:      jobsProcessedTotal,
		Help:      "number of jobs reaching a terminal state, by queue and outcome",
	},
	[]string{queueLabel, outcomeLabel},
)

var jobDurationSecondsMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: quizzy,
		Name:      jobDurationSeconds,
		Help:      "wall time spent executing one job",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{queueLabel},
)

var webhookDeliveryTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: quizzy,
		Name:      webhookDeliveryTotal,
		Help:      "number of webhook delivery attempts, by target and outcome",
	},
	[]string{targetLabel, outcomeLabel},
)

func IncreaseJobsEnqueued(queue string) {
	jobsEnqueuedTotalMetric.With(prometheus.Labels{queueLabel: queue}).Inc()
}

func IncreaseJobsProcessed(queue, outcome string) {
	jobsProcessedTotalMetric.With(prometheus.Labels{queueLabel: queue, outcomeLabel: outcome}).Inc()
}

func ObserveJobDuration(queue string, d time.Duration) {
	jobDurationSecondsMetric.With(prometheus.Labels{queueLabel: queue}).Observe(d.Seconds())
}

func IncreaseWebhookDeliveries(target, outcome string) {
	webhookDeliveryTotalMetric.With(prometheus.Labels{targetLabel: target, outcomeLabel: outcome}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsEnqueuedTotalMetric)
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(jobDurationSecondsMetric)
	prometheus.MustRegister(webhookDeliveryTotalMetric)
}
