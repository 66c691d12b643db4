package summary

import (
	"github.com/sirupsen/logrus"
)

// Config bundles the process-wide defaults a Builder falls back to.
// Per the design note carried from spec.md, this stays an explicit value
// passed into builders rather than a package-level global; DefaultConfig
// is the one process-wide default, applied only at the edge where a
// Builder is constructed without an explicit Config.
type Config struct {
	DefaultMaxAgeSeconds   float64
	DefaultAgeBuckets      int
	DefaultExemplarsEnabled bool
	Clock                  Clock
	Logger                 *logrus.Entry
}

// DefaultConfig returns the library's baseline configuration: a 300 second,
// 5-bucket window with exemplars enabled, the system wall clock, and a
// logrus entry writing to the standard logger at its default level.
func DefaultConfig() Config {
	return Config{
		DefaultMaxAgeSeconds:    300,
		DefaultAgeBuckets:       5,
		DefaultExemplarsEnabled: true,
		Clock:                   systemClock{},
		Logger:                  logrus.NewEntry(logrus.StandardLogger()),
	}
}

// Builder constructs a validated Summary. All fields are optional except
// Name, which must be set before Build.
type Builder struct {
	cfg Config

	name, help, unit string
	labelNames       []string
	targets          []QuantileTarget

	maxAgeSeconds float64
	ageBuckets    int
	exemplarsEnabled bool
	exemplarSampler  ExemplarSampler

	maxAgeSet, ageBucketsSet, exemplarsSet bool
}

// NewBuilder starts a Builder for a Summary named name, using DefaultConfig.
func NewBuilder(name string) *Builder {
	return NewBuilderWithConfig(name, DefaultConfig())
}

// NewBuilderWithConfig starts a Builder for a Summary named name, using the
// given Config for its defaults.
func NewBuilderWithConfig(name string, cfg Config) *Builder {
	return &Builder{cfg: cfg, name: name}
}

// Help sets the Summary's help text.
func (b *Builder) Help(help string) *Builder {
	b.help = help
	return b
}

// Unit sets the Summary's unit.
func (b *Builder) Unit(unit string) *Builder {
	b.unit = unit
	return b
}

// LabelNames sets the ordered label schema.
func (b *Builder) LabelNames(names ...string) *Builder {
	b.labelNames = append([]string(nil), names...)
	return b
}

// Quantile adds a quantile target at phi, using the default error for that
// phi: 0.001 if phi<=0.01 or phi>=0.99, 0.005 if phi<=0.02 or phi>=0.98,
// otherwise 0.01.
func (b *Builder) Quantile(phi float64) *Builder {
	return b.QuantileWithError(phi, defaultEpsilon(phi))
}

// QuantileWithError adds a quantile target at phi with an explicit rank
// error epsilon.
func (b *Builder) QuantileWithError(phi, epsilon float64) *Builder {
	b.targets = append(b.targets, QuantileTarget{Phi: phi, Epsilon: epsilon})
	return b
}

func defaultEpsilon(phi float64) float64 {
	switch {
	case phi <= 0.01 || phi >= 0.99:
		return 0.001
	case phi <= 0.02 || phi >= 0.98:
		return 0.005
	default:
		return 0.01
	}
}

// MaxAgeSeconds overrides the sliding window's total span. Default 300.
func (b *Builder) MaxAgeSeconds(seconds float64) *Builder {
	b.maxAgeSeconds = seconds
	b.maxAgeSet = true
	return b
}

// AgeBuckets overrides the number of ring buckets the window rotates
// through. Default 5.
func (b *Builder) AgeBuckets(n int) *Builder {
	b.ageBuckets = n
	b.ageBucketsSet = true
	return b
}

// ExemplarsEnabled toggles exemplar sampling. Default true.
func (b *Builder) ExemplarsEnabled(enabled bool) *Builder {
	b.exemplarsEnabled = enabled
	b.exemplarsSet = true
	return b
}

// ExemplarSampler supplies the external exemplar sampling collaborator.
// If exemplars are enabled and no sampler is supplied, observations are
// still accepted but no exemplar is ever attached to a snapshot.
func (b *Builder) ExemplarSampler(s ExemplarSampler) *Builder {
	b.exemplarSampler = s
	return b
}

// Build validates the accumulated configuration and constructs a Summary,
// or returns a ConfigurationError.
func (b *Builder) Build() (*Summary, error) {
	if b.name == "" {
		return nil, configErrorf("name must not be empty")
	}

	maxAge := b.cfg.DefaultMaxAgeSeconds
	if b.maxAgeSet {
		maxAge = b.maxAgeSeconds
	}
	if maxAge <= 0 {
		return nil, configErrorf("maxAgeSeconds must be > 0, got %v", maxAge)
	}

	ageBuckets := b.cfg.DefaultAgeBuckets
	if b.ageBucketsSet {
		ageBuckets = b.ageBuckets
	}
	if ageBuckets <= 0 {
		return nil, configErrorf("ageBuckets must be > 0, got %v", ageBuckets)
	}

	for _, name := range b.labelNames {
		if name == quantileLabel {
			return nil, configErrorf("label name %q is reserved", quantileLabel)
		}
	}

	for _, t := range b.targets {
		if t.Phi < 0 || t.Phi > 1 {
			return nil, configErrorf("quantile phi %v out of [0,1]", t.Phi)
		}
		if t.Epsilon < 0 || t.Epsilon > 1 {
			return nil, configErrorf("quantile epsilon %v out of [0,1]", t.Epsilon)
		}
	}

	exemplarsEnabled := b.cfg.DefaultExemplarsEnabled
	if b.exemplarsSet {
		exemplarsEnabled = b.exemplarsEnabled
	}

	clock := b.cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	return newSummary(
		Metadata{Name: b.name, Help: b.help, Unit: b.unit},
		append([]string(nil), b.labelNames...),
		append([]QuantileTarget(nil), b.targets...),
		maxAge,
		ageBuckets,
		exemplarsEnabled,
		b.exemplarSampler,
		clock,
		b.cfg.Logger,
	), nil
}
