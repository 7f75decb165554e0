package mcp

import (
	"errors"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
	"github.com/Aman-CERP/shipcheck/internal/finding"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
)

// ValidateInput defines the input schema for the validate_build_config tool.
type ValidateInput struct {
	Dir         string `json:"dir,omitempty" jsonschema:"project directory; defaults to the server working directory"`
	ConfigPath  string `json:"config_path,omitempty" jsonschema:"app config document, relative to dir; defaults to app.json or app.config.*"`
	ProfilePath string `json:"profile_path,omitempty" jsonschema:"build-profile document, relative to dir; defaults to eas.json in dir"`
	Profile     string `json:"profile,omitempty" jsonschema:"build profile to check; defaults to production"`
}

// ValidateOutput defines the output schema for the validate_build_config tool.
// Error is set, and Findings empty, when a precondition aborted the check.
type ValidateOutput struct {
	Verdict  string          `json:"verdict" jsonschema:"PASS, WARN or FAIL"`
	ExitCode int             `json:"exit_code" jsonschema:"0 when the build may proceed, 1 otherwise"`
	Config   string          `json:"config,omitempty" jsonschema:"absolute path of the checked config document"`
	Profile  string          `json:"profile,omitempty" jsonschema:"checked build profile"`
	Counts   finding.Counts  `json:"counts"`
	Findings []FindingOutput `json:"findings" jsonschema:"findings in evaluation order"`
	Error    *ErrorOutput    `json:"error,omitempty" jsonschema:"fatal precondition that aborted the check"`
}

// FindingOutput is a single finding.
type FindingOutput struct {
	Severity string `json:"severity" jsonschema:"PASS, WARN or FAIL"`
	Subject  string `json:"subject" jsonschema:"config field or file the finding is about"`
	Message  string `json:"message"`
}

// ErrorOutput describes a fatal precondition.
type ErrorOutput struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// RulesOutput is the content of the rules resource.
type RulesOutput struct {
	Rules []string `json:"rules"`
}

// toValidateOutput converts a completed run.
func toValidateOutput(res *shipcheck.Result) ValidateOutput {
	findings := res.Report.Findings()
	out := ValidateOutput{
		Verdict:  res.Report.Verdict().String(),
		ExitCode: res.Report.ExitCode(),
		Config:   res.ConfigPath,
		Profile:  res.Profile,
		Counts:   res.Report.Counts(),
		Findings: make([]FindingOutput, 0, len(findings)),
	}
	for _, f := range findings {
		out.Findings = append(out.Findings, FindingOutput{
			Severity: f.Severity.String(),
			Subject:  f.Subject,
			Message:  f.Message,
		})
	}
	return out
}

// fatalOutput converts a fatal precondition.
func fatalOutput(err error) ValidateOutput {
	out := ValidateOutput{
		Verdict:  finding.Fail.String(),
		ExitCode: 1,
		Findings: []FindingOutput{},
		Error:    &ErrorOutput{Code: scerrors.GetCode(err), Message: err.Error()},
	}
	var ce *scerrors.CheckError
	if errors.As(err, &ce) {
		out.Error.Message = ce.Message
		out.Error.Suggestion = ce.Suggestion
	}
	return out
}
