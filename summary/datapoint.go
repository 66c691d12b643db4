package summary

import (
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/rsoro/summarycore/internal/window"
)

// DataPoint is the per-label-tuple aggregate state of a Summary: count,
// sum, windowed quantiles, exemplars, and creation time.
type DataPoint struct {
	count uint64 // atomic
	sumBits uint64 // atomic, math.Float64bits(sum)

	quantileTargets []QuantileTarget // shared, read-only after construction
	window          *window.SlidingWindow // nil if no quantile targets configured

	buffer observationBuffer

	exemplarSampler ExemplarSampler
	logger          *logrus.Entry

	createdTimeMillis int64
}

func newDataPoint(targets []QuantileTarget, w *window.SlidingWindow, sampler ExemplarSampler, logger *logrus.Entry, createdTimeMillis int64) *DataPoint {
	if sampler == nil {
		sampler = noopExemplarSampler{}
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DataPoint{
		quantileTargets:   targets,
		window:            w,
		exemplarSampler:   sampler,
		logger:            logger,
		createdTimeMillis: createdTimeMillis,
	}
}

// Observe adds v to the data point. NaN is silently dropped.
func (d *DataPoint) Observe(v float64) {
	if math.IsNaN(v) {
		return
	}
	if !d.buffer.Append(v) {
		d.doObserve(v)
		d.buffer.Done()
	}
	d.exemplarSampler.Observe(v)
}

// ObserveWithExemplar adds v to the data point and offers exemplarLabels to
// the exemplar sampler. NaN is silently dropped.
func (d *DataPoint) ObserveWithExemplar(v float64, exemplarLabels Labels) {
	if math.IsNaN(v) {
		return
	}
	if !d.buffer.Append(v) {
		d.doObserve(v)
		d.buffer.Done()
	}
	d.exemplarSampler.ObserveWithExemplar(v, exemplarLabels)
}

// doObserve applies v to sum and the quantile window, then -- last, as the
// synchronization edge described in spec section 4.D -- increments count.
// A concurrent reader that observes the new count is guaranteed to also
// observe the corresponding sum and estimator update.
func (d *DataPoint) doObserve(v float64) {
	d.addSum(v)
	if d.window != nil {
		d.window.Observe(v)
	}
	atomic.AddUint64(&d.count, 1)
}

func (d *DataPoint) addSum(v float64) {
	for {
		old := atomic.LoadUint64(&d.sumBits)
		newSum := math.Float64frombits(old) + v
		if atomic.CompareAndSwapUint64(&d.sumBits, old, math.Float64bits(newSum)) {
			return
		}
	}
}

// collect runs the buffer's drain-and-lock protocol to obtain a consistent
// (count, sum, quantile) view, then assembles an immutable snapshot. A
// debug log line fires the moment the buffer's "queued while collecting"
// counter crosses zero, the one diagnostic the core writes, and only
// through the logger it was given.
func (d *DataPoint) collect(labels Labels) SummaryDataPointSnapshot {
	queuedBefore := d.buffer.QueuedWhileCollecting()
	defer func() {
		if queuedBefore == 0 && d.buffer.QueuedWhileCollecting() > 0 {
			d.logger.WithField("labels", labels).Debug("observations queued while collecting snapshot")
		}
	}()
	return d.buffer.run(func() SummaryDataPointSnapshot {
		count := atomic.LoadUint64(&d.count)
		sum := math.Float64frombits(atomic.LoadUint64(&d.sumBits))

		var quantiles []QuantileValue
		if d.window != nil && len(d.quantileTargets) > 0 {
			phis := make([]float64, len(d.quantileTargets))
			for i, t := range d.quantileTargets {
				phis[i] = t.Phi
			}
			values := d.window.QueryAll(phis)
			quantiles = make([]QuantileValue, len(d.quantileTargets))
			for i, t := range d.quantileTargets {
				quantiles[i] = QuantileValue{Phi: t.Phi, Value: values[i]}
			}
		}

		return SummaryDataPointSnapshot{
			Count:              count,
			Sum:                sum,
			Quantiles:          quantiles,
			Labels:             labels,
			Exemplars:          d.exemplarSampler.Collect(),
			CreatedTimestampMs: d.createdTimeMillis,
		}
	}, d.doObserve)
}
