package summary

// MetricCore is the small interface every metric variant in this family
// would implement (name, labels, collect), collapsing the teacher's
// Metric/MetricsCollector/SelfCollector split (see prometheus/collector.go)
// per the design note that a Summary core needs nothing heavier than this.
type MetricCore interface {
	Metadata() Metadata
	LabelNames() []string
	Collect() SummarySnapshot
}
