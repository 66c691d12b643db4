package summary

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Labels is a label name -> value mapping, mirroring the shape callers use
// to build a label tuple via withLabels-style constructors.
type Labels map[string]string

// quantileLabel is the label name Prometheus reserves for a Summary's own
// per-quantile dimension; a Summary's configured label schema must not
// collide with it.
const quantileLabel = "quantile"

// hashLabelValues hashes an ordered tuple of label values into the map key
// used by Summary's lazy label-tuple map. Swapped from the teacher's
// hash/fnv (see DESIGN.md) to xxhash, already a direct dependency of the
// teacher's own go.mod and meaningfully faster under concurrent,
// high-cardinality withLabelValues traffic.
func hashLabelValues(values []string) uint64 {
	h := xxhash.New()
	for _, v := range values {
		_, _ = h.WriteString(v)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// sortKey builds the lexicographic sort key for a data point's label tuple,
// used to order SummaryDataPointSnapshot entries within a SummarySnapshot
// (ascending on (name, value) pairs, per the Prometheus convention).
func sortKey(labelNames, values []string) string {
	var buf bytes.Buffer
	for i, name := range labelNames {
		buf.WriteString(name)
		buf.WriteByte('=')
		buf.WriteString(values[i])
		buf.WriteByte(0)
	}
	return buf.String()
}
