package summary

// QuantileTarget is a single configured (phi, epsilon) objective. Set order
// is preserved from construction and defines the emission order of
// Quantiles within a SummaryDataPointSnapshot.
type QuantileTarget struct {
	Phi     float64
	Epsilon float64
}

// QuantileValue is one (phi, estimated value) pair in a snapshot.
type QuantileValue struct {
	Phi   float64
	Value float64
}

// SummaryDataPointSnapshot is the stable, immutable-after-construction
// per-label-tuple contract a downstream exposition collaborator formats.
type SummaryDataPointSnapshot struct {
	Count             uint64
	Sum               float64
	Quantiles         []QuantileValue
	Labels            Labels
	Exemplars         Exemplars
	CreatedTimestampMs int64
	// ScrapeTimestampMs is set by the caller (e.g. an exposition
	// collaborator), never by the core.
	ScrapeTimestampMs int64
}

// SummarySnapshot bundles a Summary's metadata with one
// SummaryDataPointSnapshot per distinct label tuple observed so far,
// ordered by labels ascending (lexicographic on (name, value) pairs).
type SummarySnapshot struct {
	Metadata Metadata
	Data     []SummaryDataPointSnapshot
}
