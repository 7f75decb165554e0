// Package finding defines the result record produced by every compliance rule
// and the aggregation policy that turns a sequence of records into a verdict.
package finding

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the outcome class of a single finding.
type Severity int

const (
	// Pass indicates the check succeeded.
	Pass Severity = iota
	// Warn indicates an advisory problem that never blocks a build.
	Warn
	// Fail indicates a problem that blocks the build.
	Fail
)

// String returns the report tag for a Severity.
func (s Severity) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the severity as its tag.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity tag (case-insensitive).
func (s *Severity) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	parsed, err := ParseSeverity(tag)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a tag such as "warn" into a Severity.
func ParseSeverity(tag string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "PASS":
		return Pass, nil
	case "WARN":
		return Warn, nil
	case "FAIL":
		return Fail, nil
	default:
		return Pass, fmt.Errorf("unknown severity %q", tag)
	}
}

// Finding is one (severity, subject, message) record produced by a rule.
// Findings are values; nothing mutates them after emission.
type Finding struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// String renders the finding as a report line.
func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Subject, f.Message)
}

// Passf builds a PASS finding.
func Passf(subject, format string, args ...any) Finding {
	return Finding{Severity: Pass, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a WARN finding.
func Warnf(subject, format string, args ...any) Finding {
	return Finding{Severity: Warn, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Failf builds a FAIL finding.
func Failf(subject, format string, args ...any) Finding {
	return Finding{Severity: Fail, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Verdict returns the aggregate severity of findings: FAIL if any finding
// failed, WARN if any warned, PASS otherwise (including for no findings).
func Verdict(findings []Finding) Severity {
	verdict := Pass
	for _, f := range findings {
		if f.Severity > verdict {
			verdict = f.Severity
		}
	}
	return verdict
}

// HasFailure reports whether any finding has severity FAIL.
func HasFailure(findings []Finding) bool {
	return Verdict(findings) == Fail
}

// Counts tallies findings per severity.
type Counts struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// Add records one finding in the tally.
func (c *Counts) Add(f Finding) {
	switch f.Severity {
	case Pass:
		c.Passed++
	case Warn:
		c.Warnings++
	case Fail:
		c.Failed++
	}
}

// Total returns the number of findings counted.
func (c Counts) Total() int {
	return c.Passed + c.Warnings + c.Failed
}
