// Package report aggregates findings into a verdict and renders them as a
// line-oriented text report or a JSON document.
package report

import (
	"github.com/Aman-CERP/shipcheck/internal/finding"
)

// Aggregator collects findings in emission order.
type Aggregator struct {
	findings []finding.Finding
	counts   finding.Counts
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records findings in order.
func (a *Aggregator) Add(findings ...finding.Finding) {
	for _, f := range findings {
		a.findings = append(a.findings, f)
		a.counts.Add(f)
	}
}

// Findings returns a copy of the recorded findings.
func (a *Aggregator) Findings() []finding.Finding {
	return append([]finding.Finding(nil), a.findings...)
}

// Counts returns the per-severity tally.
func (a *Aggregator) Counts() finding.Counts {
	return a.counts
}

// Verdict is FAIL iff any finding failed, WARN iff any warned, else PASS.
func (a *Aggregator) Verdict() finding.Severity {
	switch {
	case a.counts.Failed > 0:
		return finding.Fail
	case a.counts.Warnings > 0:
		return finding.Warn
	default:
		return finding.Pass
	}
}

// ExitCode is 1 when the verdict is FAIL. Warnings never block.
func (a *Aggregator) ExitCode() int {
	if a.Verdict() == finding.Fail {
		return 1
	}
	return 0
}
