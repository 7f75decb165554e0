package errors

import (
	"errors"
	"fmt"
)

// CheckError is the structured error type for shipcheck.
// It provides rich context for error handling, logging, and user presentation.
type CheckError struct {
	// Code is the unique error code (e.g., "ERR_101_CONFIG_MISSING").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, External, Probe, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with CheckError.
func (e *CheckError) Is(target error) bool {
	if t, ok := target.(*CheckError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *CheckError) WithDetail(key, value string) *CheckError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *CheckError) WithSuggestion(suggestion string) *CheckError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CheckError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *CheckError {
	return &CheckError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a CheckError from an existing error.
// The error's message becomes the CheckError message.
func Wrap(code string, err error) *CheckError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigMissing reports that the primary configuration document does not exist.
func ConfigMissing(path string, cause error) *CheckError {
	return New(ErrCodeConfigMissing, fmt.Sprintf("configuration not found: %s", path), cause).
		WithDetail("path", path).
		WithSuggestion("run from the project root or pass the config path as the first argument")
}

// ConfigMalformed reports that the configuration document could not be parsed.
func ConfigMalformed(path string, cause error) *CheckError {
	msg := fmt.Sprintf("configuration is malformed: %s", path)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return New(ErrCodeConfigMalformed, msg, cause).
		WithDetail("path", path).
		WithSuggestion("fix the syntax error and re-run")
}

// ProfileMissing reports a missing build-profile document or named profile.
func ProfileMissing(path, profile string, cause error) *CheckError {
	msg := fmt.Sprintf("build profile document not found: %s", path)
	if profile != "" {
		msg = fmt.Sprintf("build profile %q not defined in %s", profile, path)
	}
	e := New(ErrCodeProfileMissing, msg, cause).WithDetail("path", path)
	if profile != "" {
		e.WithDetail("profile", profile)
		return e.WithSuggestion(fmt.Sprintf("add a %q entry under \"build\"", profile))
	}
	return e.WithSuggestion("create the build profile document or pass its path as the second argument")
}

// ProfileMalformed reports a build-profile document that failed to parse or validate.
func ProfileMalformed(path string, cause error) *CheckError {
	msg := fmt.Sprintf("build profile document is malformed: %s", path)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return New(ErrCodeProfileMalformed, msg, cause).
		WithDetail("path", path).
		WithSuggestion("profiles live under \"build\" and map names to {autoIncrement, env}")
}

// ExternalResolveFailure reports that the compute-configuration process failed.
func ExternalResolveFailure(message string, cause error) *CheckError {
	return New(ErrCodeExternalResolve, message, cause).
		WithSuggestion("run the configuration command manually to see its output")
}

// ToolConfigInvalid reports an invalid shipcheck configuration.
func ToolConfigInvalid(message string, cause error) *CheckError {
	return New(ErrCodeToolConfigInvalid, message, cause)
}

// ProbeUnavailable reports that an optional probe cannot be used.
func ProbeUnavailable(probe string, cause error) *CheckError {
	return New(ErrCodeProbeUnavailable, fmt.Sprintf("%s probe unavailable", probe), cause).
		WithDetail("probe", probe)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CheckError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatalPrecondition reports whether err aborts a run before rules execute.
func IsFatalPrecondition(err error) bool {
	var ce *CheckError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Severity == SeverityFatal
}

// GetCode extracts the error code from a CheckError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CheckError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
