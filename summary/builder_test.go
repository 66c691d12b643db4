package summary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderRejectsEmptyName(t *testing.T) {
	_, err := NewBuilder("").Build()
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBuilderRejectsReservedQuantileLabel(t *testing.T) {
	_, err := NewBuilder("test_summary").LabelNames("route", "quantile").Build()
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBuilderRejectsNonPositiveAgeBuckets(t *testing.T) {
	_, err := NewBuilder("test_summary").AgeBuckets(0).Build()
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBuilderRejectsOutOfRangeQuantileTarget(t *testing.T) {
	_, err := NewBuilder("test_summary").QuantileWithError(1.5, 0.01).Build()
	require.Error(t, err)

	_, err = NewBuilder("test_summary").QuantileWithError(0.5, -0.01).Build()
	require.Error(t, err)
}

func TestDefaultEpsilonTiers(t *testing.T) {
	require.Equal(t, 0.001, defaultEpsilon(0))
	require.Equal(t, 0.001, defaultEpsilon(0.01))
	require.Equal(t, 0.001, defaultEpsilon(1))
	require.Equal(t, 0.005, defaultEpsilon(0.02))
	require.Equal(t, 0.005, defaultEpsilon(0.98))
	require.Equal(t, 0.01, defaultEpsilon(0.5))
}

func TestBuilderUsesCustomConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultMaxAgeSeconds = 60
	cfg.DefaultAgeBuckets = 3
	cfg.DefaultExemplarsEnabled = false

	s, err := NewBuilderWithConfig("test_summary", cfg).Quantile(0.5).Build()
	require.NoError(t, err)
	require.Equal(t, "test_summary", s.Metadata().Name)
	require.Equal(t, 3, s.ageBuckets)
	require.Equal(t, false, s.exemplarsEnabled)
}
