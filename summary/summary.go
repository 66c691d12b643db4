package summary

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rsoro/summarycore/internal/ckms"
	"github.com/rsoro/summarycore/internal/window"
)

// Summary is a Prometheus-style summary metric: per-label-tuple count, sum,
// and streaming quantile estimates over a sliding time window. The
// label-tuple map follows the lazy insert-if-absent pattern of the
// teacher's MetricVec (see prometheus/vec.go), guarded by a RWMutex so
// concurrent readers of distinct, already-created tuples never block each
// other.
type Summary struct {
	metadata   Metadata
	labelNames []string
	targets    []QuantileTarget

	maxAge     time.Duration
	ageBuckets int

	exemplarsEnabled bool
	exemplarSampler  ExemplarSampler

	clock  Clock
	logger *logrus.Entry

	mu         sync.RWMutex
	dataPoints map[uint64]*DataPoint
	labelsOf   map[uint64]Labels

	unlabeled *DataPoint // non-nil only when labelNames is empty
}

func newSummary(
	metadata Metadata,
	labelNames []string,
	targets []QuantileTarget,
	maxAgeSeconds float64,
	ageBuckets int,
	exemplarsEnabled bool,
	exemplarSampler ExemplarSampler,
	clock Clock,
	logger *logrus.Entry,
) *Summary {
	s := &Summary{
		metadata:         metadata,
		labelNames:       labelNames,
		targets:          targets,
		maxAge:           time.Duration(maxAgeSeconds * float64(time.Second)),
		ageBuckets:       ageBuckets,
		exemplarsEnabled: exemplarsEnabled,
		exemplarSampler:  exemplarSampler,
		clock:            clock,
		logger:           logger,
		dataPoints:       make(map[uint64]*DataPoint),
		labelsOf:         make(map[uint64]Labels),
	}
	if len(labelNames) == 0 {
		s.unlabeled = s.newDataPointLocked()
	}
	return s
}

func (s *Summary) windowClock() window.Clock {
	return func() time.Time { return s.clock.Now() }
}

func (s *Summary) ckmsFactory() window.Factory {
	targets := make([]ckms.Target, len(s.targets))
	for i, t := range s.targets {
		targets[i] = ckms.Target{Phi: t.Phi, Epsilon: t.Epsilon}
	}
	return func() *ckms.Stream {
		stream, _ := ckms.NewTargeted(targets...)
		return stream
	}
}

func (s *Summary) newDataPointLocked() *DataPoint {
	var w *window.SlidingWindow
	if len(s.targets) > 0 {
		w = window.New(s.maxAge, s.ageBuckets, s.ckmsFactory(), s.windowClock())
	}
	var sampler ExemplarSampler
	if s.exemplarsEnabled {
		sampler = s.exemplarSampler
	}
	return newDataPoint(s.targets, w, sampler, s.logger, s.clock.Now().UnixMilli())
}

// Metadata returns the Summary's name, help text, and unit.
func (s *Summary) Metadata() Metadata {
	return s.metadata
}

// LabelNames returns the ordered label schema this Summary was built with.
func (s *Summary) LabelNames() []string {
	return append([]string(nil), s.labelNames...)
}

// Observe records v against the label-less data point. It is a UsageError
// to call Observe on a Summary that was built with a non-empty label
// schema; use WithLabelValues instead.
func (s *Summary) Observe(v float64) error {
	if s.unlabeled == nil {
		return usageErrorf("Observe called on a Summary with label names %v; use WithLabelValues", s.labelNames)
	}
	s.unlabeled.Observe(v)
	return nil
}

// ObserveWithExemplar records v and an exemplar against the label-less
// data point. Same UsageError condition as Observe.
func (s *Summary) ObserveWithExemplar(v float64, exemplarLabels Labels) error {
	if s.unlabeled == nil {
		return usageErrorf("ObserveWithExemplar called on a Summary with label names %v; use WithLabelValues", s.labelNames)
	}
	s.unlabeled.ObserveWithExemplar(v, exemplarLabels)
	return nil
}

// WithLabelValues returns the Observer for the data point identified by
// values, in the order labelNames was declared, creating it on first use.
// It returns a ConfigurationError if len(values) does not match
// len(labelNames), per spec §7's classification of wrong label arity as a
// configuration mistake rather than an observation-site usage mistake.
func (s *Summary) WithLabelValues(values ...string) (ExemplarObserver, error) {
	if len(values) != len(s.labelNames) {
		return nil, configErrorf("expected %d label values, got %d", len(s.labelNames), len(values))
	}
	return s.dataPointFor(values), nil
}

func (s *Summary) dataPointFor(values []string) *DataPoint {
	h := hashLabelValues(values)

	s.mu.RLock()
	dp, ok := s.dataPoints[h]
	s.mu.RUnlock()
	if ok {
		return dp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if dp, ok := s.dataPoints[h]; ok {
		return dp
	}
	labels := make(Labels, len(s.labelNames))
	for i, name := range s.labelNames {
		labels[name] = values[i]
	}
	dp = s.newDataPointLocked()
	s.dataPoints[h] = dp
	s.labelsOf[h] = labels
	return dp
}

// Collect assembles a SummarySnapshot covering every label tuple observed
// so far, ordered ascending by labels for stable, deterministic output.
func (s *Summary) Collect() SummarySnapshot {
	if s.unlabeled != nil {
		return SummarySnapshot{
			Metadata: s.metadata,
			Data:     []SummaryDataPointSnapshot{s.unlabeled.collect(nil)},
		}
	}

	s.mu.RLock()
	type entry struct {
		key    string
		hash   uint64
		labels Labels
	}
	entries := make([]entry, 0, len(s.dataPoints))
	for h, labels := range s.labelsOf {
		values := make([]string, len(s.labelNames))
		for i, name := range s.labelNames {
			values[i] = labels[name]
		}
		entries = append(entries, entry{key: sortKey(s.labelNames, values), hash: h, labels: labels})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	data := make([]SummaryDataPointSnapshot, 0, len(entries))
	for _, e := range entries {
		s.mu.RLock()
		dp := s.dataPoints[e.hash]
		s.mu.RUnlock()
		data = append(data, dp.collect(e.labels))
	}

	return SummarySnapshot{Metadata: s.metadata, Data: data}
}
