// Package window implements the sliding time-window ring that backs a
// Summary's quantile estimates: a fixed-size ring of CKMS estimators is
// rotated by wall-clock time so that queries only ever see the most recent
// slice of the configured window.
package window

import (
	"sync"
	"time"

	"github.com/rsoro/summarycore/internal/ckms"
)

// Factory builds a fresh estimator for a bucket being (re)initialized.
type Factory func() *ckms.Stream

// Clock returns the current wall-clock time; injectable for tests.
type Clock func() time.Time

type ageBucket struct {
	estimator *ckms.Stream
	// deadlineMillis is the wall-clock millisecond timestamp at which this
	// bucket stops being "current" and rotation must advance past it.
	deadlineMillis int64
}

// SlidingWindow rotates ageBuckets estimator instances over a window of
// maxAge, so that current() always reflects only the last
// maxAge/ageBuckets seconds' worth of observations. It is safe for
// concurrent use; observe and query are serialized with a short mutex.
type SlidingWindow struct {
	mu            sync.Mutex
	buckets       []ageBucket
	cur           int
	bucketMillis  int64
	factory       Factory
	clock         Clock
}

// New constructs a SlidingWindow covering maxAge seconds split across
// ageBuckets ring entries. factory builds a fresh estimator whenever a
// bucket is (re)initialized.
func New(maxAge time.Duration, ageBuckets int, factory Factory, clock Clock) *SlidingWindow {
	bucketMillis := maxAge.Milliseconds() / int64(ageBuckets)
	if bucketMillis <= 0 {
		bucketMillis = 1
	}
	now := clock().UnixMilli()
	buckets := make([]ageBucket, ageBuckets)
	for i := range buckets {
		buckets[i] = ageBucket{estimator: factory(), deadlineMillis: now + bucketMillis}
	}
	return &SlidingWindow{
		buckets:      buckets,
		bucketMillis: bucketMillis,
		factory:      factory,
		clock:        clock,
	}
}

// Observe inserts v into the current bucket, rotating the ring first if
// wall-clock time has advanced past the current bucket's deadline.
func (w *SlidingWindow) Observe(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rotateLocked(w.clock().UnixMilli())
	w.buckets[w.cur].estimator.Insert(v)
}

// Current returns the estimator backing the active bucket, after rotating
// the ring if necessary. The returned estimator only aggregates
// observations from the last bucketMillis milliseconds, not the full
// window -- this is the accepted tradeoff for bounded memory.
func (w *SlidingWindow) Current() *ckms.Stream {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rotateLocked(w.clock().UnixMilli())
	return w.buckets[w.cur].estimator
}

// QueryAll rotates the ring if necessary, then queries every phi against
// the same current-bucket estimator under a single lock acquisition, so a
// caller reading several quantile targets sees a consistent bucket.
func (w *SlidingWindow) QueryAll(phis []float64) []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rotateLocked(w.clock().UnixMilli())
	cur := w.buckets[w.cur].estimator
	out := make([]float64, len(phis))
	for i, phi := range phis {
		out[i] = cur.Query(phi)
	}
	return out
}

// rotateLocked advances the ring past any bucket whose deadline has
// elapsed. Advances are capped at len(buckets): if now is still past the
// current deadline after that many advances (a gap longer than the whole
// window), every bucket is reset with its deadline anchored at now.
func (w *SlidingWindow) rotateLocked(now int64) {
	advances := 0
	for now >= w.buckets[w.cur].deadlineMillis && advances < len(w.buckets) {
		next := (w.cur + 1) % len(w.buckets)
		w.buckets[next] = ageBucket{
			estimator:      w.factory(),
			deadlineMillis: w.buckets[w.cur].deadlineMillis + w.bucketMillis,
		}
		w.cur = next
		advances++
	}
	if now >= w.buckets[w.cur].deadlineMillis {
		for i := range w.buckets {
			w.buckets[i] = ageBucket{estimator: w.factory(), deadlineMillis: now + w.bucketMillis}
		}
		w.cur = 0
	}
}
