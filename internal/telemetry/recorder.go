package telemetry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "k8stacks"

// Operation describes one finished stack operation.
type Operation struct {
	Project   string
	Stack     string
	Operation string
	Duration  time.Duration

	// Changes counts resources per operation type (create, update, ...).
	Changes map[string]int
	Err     error
}

// Recorder collects operation metrics in a private registry.
type Recorder struct {
	url      string
	job      string
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.GaugeVec
	changes    *prometheus.GaugeVec
	lastRun    *prometheus.GaugeVec

	grouping map[string]string
}

// NewRecorder creates a recorder pushing to url. An empty job selects
// DefaultJob.
func NewRecorder(url, job string) *Recorder {
	if job == "" {
		job = DefaultJob
	}

	r := &Recorder{
		url:      url,
		job:      job,
		registry: prometheus.NewRegistry(),
		grouping: map[string]string{},
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "k8stacks",
				Subsystem: "stack",
				Name:      "operations_total",
				Help:      "Stack operations by result",
			},
			[]string{"project", "operation", "result"},
		),
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k8stacks",
				Subsystem: "stack",
				Name:      "operation_duration_seconds",
				Help:      "Duration of the last stack operation in seconds",
			},
			[]string{"project", "operation"},
		),
		changes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k8stacks",
				Subsystem: "stack",
				Name:      "resource_changes",
				Help:      "Resources changed by the last stack operation, by change type",
			},
			[]string{"project", "operation", "change"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "k8stacks",
				Subsystem: "stack",
				Name:      "last_operation_timestamp_seconds",
				Help:      "Unix time of the last stack operation",
			},
			[]string{"project", "operation"},
		),
	}

	r.registry.MustRegister(r.operations, r.duration, r.changes, r.lastRun)
	return r
}

// Enabled reports whether a Pushgateway URL is configured.
func (r *Recorder) Enabled() bool {
	return r != nil && r.url != ""
}

// Observe records op. The stack only goes into the push grouping key; the
// Pushgateway rejects metrics carrying a grouping label.
func (r *Recorder) Observe(op Operation) {
	if r == nil {
		return
	}

	result := "success"
	if op.Err != nil {
		result = "failure"
	}

	r.operations.WithLabelValues(op.Project, op.Operation, result).Inc()
	r.duration.WithLabelValues(op.Project, op.Operation).Set(op.Duration.Seconds())
	r.lastRun.WithLabelValues(op.Project, op.Operation).SetToCurrentTime()

	kinds := make([]string, 0, len(op.Changes))
	for kind := range op.Changes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		r.changes.WithLabelValues(op.Project, op.Operation, kind).Set(float64(op.Changes[kind]))
	}

	r.grouping["stack"] = op.Stack
}

// Push sends the collected metrics. It is a no-op without a URL.
func (r *Recorder) Push(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	pusher := push.New(r.url, r.job).Gatherer(r.registry)
	for k, v := range r.grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.url, err)
	}
	return nil
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
