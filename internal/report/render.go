package report

import (
	"encoding/json"
	"fmt"
	"io"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
	"github.com/Aman-CERP/shipcheck/internal/finding"
	"github.com/Aman-CERP/shipcheck/internal/ui"
)

// Document is the JSON report.
type Document struct {
	Verdict  finding.Severity  `json:"verdict"`
	ExitCode int               `json:"exit_code"`
	Profile  string            `json:"profile,omitempty"`
	Config   string            `json:"config,omitempty"`
	Counts   finding.Counts    `json:"counts"`
	Findings []finding.Finding `json:"findings"`
}

// Reporter renders an Aggregator or a fatal precondition.
type Reporter struct {
	out     io.Writer
	json    bool
	styles  ui.Styles
	profile string
	config  string
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithJSON switches to the JSON document.
func WithJSON(enabled bool) Option {
	return func(r *Reporter) {
		r.json = enabled
	}
}

// WithStyles sets the text styles. Defaults to no color.
func WithStyles(s ui.Styles) Option {
	return func(r *Reporter) {
		r.styles = s
	}
}

// WithTarget records the checked config path and profile name in the JSON
// document.
func WithTarget(configPath, profile string) Option {
	return func(r *Reporter) {
		r.config = configPath
		r.profile = profile
	}
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{out: out, styles: ui.NoColorStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes every finding in order followed by the summary.
func (r *Reporter) Render(a *Aggregator) error {
	if r.json {
		findings := a.Findings()
		if findings == nil {
			findings = []finding.Finding{}
		}
		return r.writeJSON(Document{
			Verdict:  a.Verdict(),
			ExitCode: a.ExitCode(),
			Profile:  r.profile,
			Config:   r.config,
			Counts:   a.Counts(),
			Findings: findings,
		})
	}

	for _, f := range a.findings {
		if _, err := fmt.Fprintf(r.out, "%s %s: %s\n", r.styles.Tag(f.Severity), f.Subject, f.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.out, r.Summary(a))
	return err
}

// Summary returns the final report line.
func (r *Reporter) Summary(a *Aggregator) string {
	c := a.Counts()
	verdict := a.Verdict()
	return fmt.Sprintf("Result: %s (%d passed, %d warnings, %d failed)",
		r.styles.Severity(verdict).Render(verdict.String()), c.Passed, c.Warnings, c.Failed)
}

// RenderFatal writes a fatal precondition as the only output of a run.
func (r *Reporter) RenderFatal(err error) error {
	if r.json {
		data, jerr := scerrors.FormatJSON(err)
		if jerr != nil {
			return jerr
		}
		_, werr := fmt.Fprintf(r.out, "{\"verdict\":\"FAIL\",\"exit_code\":1,\"error\":%s}\n", data)
		return werr
	}
	_, werr := io.WriteString(r.out, scerrors.FormatForCLI(err))
	return werr
}

func (r *Reporter) writeJSON(doc Document) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
