package summary

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(clock Clock) Config {
	cfg := DefaultConfig()
	cfg.Clock = clock
	return cfg
}

// Scenario 1: a plain run of 1..100 yields an exact count/sum and
// quantiles within their configured error bounds.
func TestSummaryCountSumAndQuantiles(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		Quantile(0.5).
		Quantile(0.95).
		Build()
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		require.NoError(t, s.Observe(float64(i)))
	}

	snap := s.Collect()
	require.Len(t, snap.Data, 1)
	dp := snap.Data[0]
	require.EqualValues(t, 100, dp.Count)
	require.Equal(t, 5050.0, dp.Sum)

	require.Len(t, dp.Quantiles, 2)
	require.GreaterOrEqual(t, dp.Quantiles[0].Value, 49.0)
	require.LessOrEqual(t, dp.Quantiles[0].Value, 52.0)
	require.GreaterOrEqual(t, dp.Quantiles[1].Value, 94.0)
	require.LessOrEqual(t, dp.Quantiles[1].Value, 96.0)
}

// Scenario 2: NaN observations are dropped from count, sum, and the
// quantile estimator.
func TestSummaryDropsNaN(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).Build()
	require.NoError(t, err)

	require.NoError(t, s.Observe(1))
	require.NoError(t, s.Observe(2))
	require.NoError(t, s.Observe(math.NaN()))
	require.NoError(t, s.Observe(3))

	dp := s.Collect().Data[0]
	require.EqualValues(t, 3, dp.Count)
	require.Equal(t, 6.0, dp.Sum)
	require.Empty(t, dp.Quantiles)
}

// Scenario 3: phi=0/epsilon=0 and phi=1/epsilon=0 targets preserve the
// exact minimum and maximum regardless of compression.
func TestSummaryExactMinMax(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		QuantileWithError(0, 0).
		QuantileWithError(1, 0).
		Build()
	require.NoError(t, err)

	for _, v := range []float64{42, 7, 99, 3, 5000, -12} {
		require.NoError(t, s.Observe(v))
	}

	dp := s.Collect().Data[0]
	require.Equal(t, -12.0, dp.Quantiles[0].Value)
	require.Equal(t, 5000.0, dp.Quantiles[1].Value)
}

// Scenario 4: count and sum are never windowed, but quantiles go NaN once
// the full window has elapsed without fresh observations.
func TestSummaryRotationExpiresQuantilesNotCountSum(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		Quantile(0.5).
		MaxAgeSeconds(300).
		AgeBuckets(5).
		Build()
	require.NoError(t, err)

	for i := 0; i <= 999; i++ {
		require.NoError(t, s.Observe(float64(i)))
	}
	clock.advance(301 * time.Second)

	dp := s.Collect().Data[0]
	require.EqualValues(t, 1000, dp.Count)
	require.Equal(t, 499500.0, dp.Sum)
	require.True(t, math.IsNaN(dp.Quantiles[0].Value))
}

// Scenario 5: the label-less fast path is a usage error once a label
// schema is configured.
func TestSummaryLabelLessObserveIsUsageErrorWithLabels(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		LabelNames("route", "method").
		Build()
	require.NoError(t, err)

	err = s.Observe(1)
	require.Error(t, err)
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
}

func TestSummaryWithLabelValuesArityMismatch(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		LabelNames("route", "method").
		Build()
	require.NoError(t, err)

	_, err = s.WithLabelValues("/foo")
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

// Scenario 6: a non-positive maxAgeSeconds is rejected at Build time.
func TestBuilderRejectsNonPositiveMaxAge(t *testing.T) {
	_, err := NewBuilder("test_summary").MaxAgeSeconds(0).Build()
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCollectOrdersByLabelsAscending(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).
		LabelNames("route").
		Build()
	require.NoError(t, err)

	for _, route := range []string{"/zeta", "/alpha", "/mid"} {
		obs, err := s.WithLabelValues(route)
		require.NoError(t, err)
		obs.Observe(1)
	}

	snap := s.Collect()
	require.Len(t, snap.Data, 3)
	require.Equal(t, "/alpha", snap.Data[0].Labels["route"])
	require.Equal(t, "/mid", snap.Data[1].Labels["route"])
	require.Equal(t, "/zeta", snap.Data[2].Labels["route"])
}

func TestCollectIsIdempotentBetweenObservations(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).Quantile(0.5).Build()
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		require.NoError(t, s.Observe(float64(i)))
	}

	first := s.Collect().Data[0]
	second := s.Collect().Data[0]
	require.Equal(t, first.Count, second.Count)
	require.Equal(t, first.Sum, second.Sum)
	require.Equal(t, first.Quantiles, second.Quantiles)
}

// Concurrent observers racing a concurrent Collect loop must each be
// counted exactly once: once all observers finish, the final snapshot's
// count and sum equal the number issued, and no intermediate snapshot saw
// a larger count.
func TestConcurrentObserveAndCollectExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	s, err := NewBuilderWithConfig("test_summary", testConfig(clock)).Build()
	require.NoError(t, err)

	const observers = 50
	const perObserver = 200

	var wg sync.WaitGroup
	wg.Add(observers)
	for i := 0; i < observers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perObserver; j++ {
				_ = s.Observe(1)
			}
		}()
	}

	stop := make(chan struct{})
	var maxSeen uint64
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				dp := s.Collect().Data[0]
				if dp.Count > maxSeen {
					maxSeen = dp.Count
				}
			}
		}
	}()

	wg.Wait()
	close(stop)

	final := s.Collect().Data[0]
	require.EqualValues(t, observers*perObserver, final.Count)
	require.Equal(t, float64(observers*perObserver), final.Sum)
	require.LessOrEqual(t, maxSeen, final.Count)
}
