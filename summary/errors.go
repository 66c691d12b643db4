package summary

import "fmt"

// ConfigurationError reports an invalid Builder configuration: an
// out-of-range quantile target, a non-positive window parameter, the
// reserved "quantile" label name, or a withLabelValues call of the wrong
// arity.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("summary: invalid configuration: %s", e.Reason)
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// UsageError reports a caller mistake at the observation call site, such as
// calling the label-less Observe on a Summary that has a non-empty label
// schema.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("summary: usage error: %s", e.Reason)
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}
