// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. Collectors live in a private registry that is pushed on
// Flush, once per CLI run.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tsvload/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	loadCounter  *prometheus.CounterVec // table, status
	loadDuration *prometheus.SummaryVec // table, status
	rowCounter   *prometheus.CounterVec // table
	batchCounter *prometheus.CounterVec // table
	commitCount  *prometheus.CounterVec // table
}

// NewBackend constructs a backend pushing to gatewayURL under jobName
// ("tsvload" when empty).
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tsvload"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		loadCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Table loads, partitioned by table and outcome.",
		}, []string{"table", "status"}),
		loadDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of table loads in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"table", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows flushed to the store.",
		}, []string{"table"}),
		batchCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Insert batches flushed to the store.",
		}, []string{"table"}),
		commitCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.CommitsTotal,
			Help: "Transactions committed.",
		}, []string{"table"}),
	}

	for _, c := range []prometheus.Collector{b.loadCounter, b.loadDuration, b.rowCounter, b.batchCounter, b.commitCount} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	table := labels["table"]
	switch name {
	case metrics.StepTotal:
		if b.loadCounter != nil {
			b.loadCounter.WithLabelValues(table, labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(table).Add(delta)
		}
	case metrics.BatchesTotal:
		if b.batchCounter != nil {
			b.batchCounter.WithLabelValues(table).Add(delta)
		}
	case metrics.CommitsTotal:
		if b.commitCount != nil {
			b.commitCount.WithLabelValues(table).Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.loadDuration == nil {
		return
	}
	b.loadDuration.WithLabelValues(labels["table"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the job's group.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
