package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the clan module.
// Tracks lifecycle counts, repository operation latency and cache effectiveness.
type Metrics struct {
	ClansCreated      prometheus.Counter
	ClansDeleted      prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
}

// New creates a Metrics instance registered against reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClansCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_clans_created_total",
			Help: "Total number of clans created",
		}),
		ClansDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clanhub_clans_deleted_total",
			Help: "Total number of clans deleted",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clanhub_clan_operation_duration_seconds",
			Help:    "Duration of clan repository operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clanhub_clan_cache_lookups_total",
			Help: "Clan cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// IncrementClansCreated records a successful clan creation.
func (m *Metrics) IncrementClansCreated() {
	m.ClansCreated.Inc()
}

// IncrementClansDeleted records a successful clan deletion.
func (m *Metrics) IncrementClansDeleted() {
	m.ClansDeleted.Inc()
}

// ObserveOperation records the duration of a repository operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

// ObserveCacheLookup counts a cache lookup by result.
func (m *Metrics) ObserveCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
