package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records activity on the item-mirror sync layer.
type SyncMetrics struct {
	pushes       *prometheus.CounterVec
	operations   *prometheus.CounterVec
	partialMoves prometheus.Counter
	mirrorItems  *prometheus.GaugeVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_pushes_total",
		Help: "Snapshot pushes applied to live item mirrors.",
	}, []string{"list"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_operations_total",
		Help: "Repository operations issued against the remote store.",
	}, []string{"op"})
	partialMoves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_partial_moves_total",
		Help: "Cross-list moves whose delete step failed after the create step succeeded.",
	})
	mirrorItems := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sync_mirror_items",
		Help: "Items currently held in a live mirror, by list.",
	}, []string{"list"})
	reg.MustRegister(pushes, operations, partialMoves, mirrorItems)
	return &SyncMetrics{
		pushes:       pushes,
		operations:   operations,
		partialMoves: partialMoves,
		mirrorItems:  mirrorItems,
	}
}

// IncPush counts one applied snapshot push for the named list.
func (s *SyncMetrics) IncPush(list string) {
	if s == nil || s.pushes == nil {
		return
	}
	s.pushes.WithLabelValues(normalizeLabel(list)).Inc()
}

// IncOperation counts one repository operation.
func (s *SyncMetrics) IncOperation(op string) {
	if s == nil || s.operations == nil {
		return
	}
	s.operations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPartialMove counts one create-only move outcome.
func (s *SyncMetrics) IncPartialMove() {
	if s == nil || s.partialMoves == nil {
		return
	}
	s.partialMoves.Inc()
}

// SetMirrorSize records the mirror size after a push or teardown.
func (s *SyncMetrics) SetMirrorSize(list string, size int) {
	if s == nil || s.mirrorItems == nil {
		return
	}
	s.mirrorItems.WithLabelValues(normalizeLabel(list)).Set(float64(size))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
