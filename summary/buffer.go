package summary

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// collectingBit marks the buffer as COLLECTING within the single atomic
// word a DataPoint's observationBuffer is built on. The remaining bits
// hold the count of inline observers that have committed to the direct
// doObserve path (Append returned false) but have not yet called Done.
// Packing both into one word -- rather than a separate state flag and a
// separate inFlight counter -- closes the check-then-act window a
// two-atomics version would have between an Append reading state and
// incrementing inFlight: every transition here is a single CAS on the
// same word, so Append and run's flip to COLLECTING linearize against
// each other instead of racing.
const collectingBit = int64(1) << 62

// observationBuffer is the batch-switch buffer described in spec section
// 4.C: it lets collect() produce a (count, sum, quantile) snapshot that is
// mutually consistent without ever blocking an observer. This is a small
// state machine built fresh for this purpose -- it does not mirror any
// particular teacher idiom (see DESIGN.md).
type observationBuffer struct {
	word int64 // atomic: collectingBit | inFlight count

	queuedWhileCollecting uint64 // observations queued while COLLECTING

	mu      sync.Mutex
	pending []float64
}

// Append attempts the fast path. If the buffer is OPEN, it atomically
// claims a slot in the inFlight count and returns false; the caller must
// then perform the update inline via doObserve and call Done. If the
// buffer is COLLECTING, v is queued and Append returns true; the caller
// does nothing further.
func (b *observationBuffer) Append(v float64) bool {
	for {
		old := atomic.LoadInt64(&b.word)
		if old&collectingBit != 0 {
			b.mu.Lock()
			b.pending = append(b.pending, v)
			b.mu.Unlock()
			atomic.AddUint64(&b.queuedWhileCollecting, 1)
			return true
		}
		if atomic.CompareAndSwapInt64(&b.word, old, old+1) {
			return false
		}
	}
}

// Done marks completion of an inline observation started by an Append call
// that returned false.
func (b *observationBuffer) Done() {
	atomic.AddInt64(&b.word, -1)
}

// QueuedWhileCollecting returns the running total of observations that
// arrived while the buffer was COLLECTING and were queued rather than
// applied inline.
func (b *observationBuffer) QueuedWhileCollecting() uint64 {
	return atomic.LoadUint64(&b.queuedWhileCollecting)
}

// run executes the snapshot protocol described in spec section 4.C: flip
// to COLLECTING (waiting out any other run already in progress), wait for
// every inline observer that had already committed to complete its count
// increment, build the snapshot, transition back to OPEN, then replay
// queued observations through replay (the normal doObserve path).
func (b *observationBuffer) run(buildSnapshot func() SummaryDataPointSnapshot, replay func(float64)) SummaryDataPointSnapshot {
	for {
		old := atomic.LoadInt64(&b.word)
		if old&collectingBit != 0 {
			runtime.Gosched()
			continue
		}
		if atomic.CompareAndSwapInt64(&b.word, old, old|collectingBit) {
			break
		}
	}

	for atomic.LoadInt64(&b.word)&^collectingBit != 0 {
		runtime.Gosched()
	}

	snap := buildSnapshot()

	atomic.StoreInt64(&b.word, 0)

	b.mu.Lock()
	queued := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, v := range queued {
		replay(v)
	}
	return snap
}
