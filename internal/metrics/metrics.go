// Package metrics exposes Prometheus instrumentation for document engines.
//
// All recording methods are safe to call on a nil *Metrics, so callers can
// leave instrumentation off without guarding every call site.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "scribe"

// Transaction results.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	transactions  *prometheus.CounterVec
	steps         prometheus.Counter
	history       *prometheus.CounterVec
	changesAdded  *prometheus.CounterVec
	changesClosed *prometheus.CounterVec
	documentSize  prometheus.Gauge
}

// New creates the collectors and registers them on reg. A collector that
// is already registered with identical options is reused.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions dispatched, by result.",
		}, []string{"result"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Steps applied by committed transactions.",
		}),
		history: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_total",
			Help:      "Undo and redo operations.",
		}, []string{"op"}),
		changesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_recorded_total",
			Help:      "Tracked changes recorded, by type.",
		}, []string{"type"}),
		changesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_resolved_total",
			Help:      "Tracked changes accepted or rejected.",
		}, []string{"action"}),
		documentSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "document_size",
			Help:      "Content size of the current document in positions.",
		}),
	}

	var errs []error
	m.transactions = register(reg, m.transactions, &errs)
	m.steps = register(reg, m.steps, &errs)
	m.history = register(reg, m.history, &errs)
	m.changesAdded = register(reg, m.changesAdded, &errs)
	m.changesClosed = register(reg, m.changesClosed, &errs)
	m.documentSize = register(reg, m.documentSize, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, errs *[]error) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	*errs = append(*errs, err)
	return c
}

// TransactionApplied counts a committed transaction and its steps, and
// records the resulting document size.
func (m *Metrics) TransactionApplied(steps, size int) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(ResultApplied).Inc()
	m.steps.Add(float64(steps))
	m.documentSize.Set(float64(size))
}

// TransactionRejected counts a transaction that failed to apply.
func (m *Metrics) TransactionRejected() {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(ResultRejected).Inc()
}

// DocumentReplaced records the size of a document loaded wholesale.
func (m *Metrics) DocumentReplaced(size int) {
	if m == nil {
		return
	}
	m.documentSize.Set(float64(size))
}

// HistoryOp counts an undo or redo.
func (m *Metrics) HistoryOp(op string) {
	if m == nil {
		return
	}
	m.history.WithLabelValues(op).Inc()
}

// ChangeRecorded counts a tracked change of the given type.
func (m *Metrics) ChangeRecorded(changeType string) {
	if m == nil {
		return
	}
	m.changesAdded.WithLabelValues(changeType).Inc()
}

// ChangesResolved counts n tracked changes closed by action, which is
// "accept" or "reject".
func (m *Metrics) ChangesResolved(action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.changesClosed.WithLabelValues(action).Add(float64(n))
}
