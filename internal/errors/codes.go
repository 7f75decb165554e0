// Package errors provides structured error handling for shipcheck.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and build-profile document errors
//   - 2XX: External process errors
//   - 3XX: Probe errors
//   - 5XX: Internal errors
//
// Every 1XX and 2XX code is a fatal precondition: the run aborts before any
// compliance rule executes.
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or profile document errors.
	CategoryConfig Category = "CONFIG"
	// CategoryExternal indicates failures of an external collaborator process.
	CategoryExternal Category = "EXTERNAL"
	// CategoryProbe indicates an optional probe could not be used.
	CategoryProbe Category = "PROBE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a precondition failure, the run must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigMissing     = "ERR_101_CONFIG_MISSING"
	ErrCodeConfigMalformed   = "ERR_102_CONFIG_MALFORMED"
	ErrCodeProfileMissing    = "ERR_103_PROFILE_MISSING"
	ErrCodeProfileMalformed  = "ERR_104_PROFILE_MALFORMED"
	ErrCodeToolConfigInvalid = "ERR_105_TOOL_CONFIG_INVALID"

	// External process errors (200-299)
	ErrCodeExternalResolve = "ERR_201_EXTERNAL_RESOLVE"

	// Probe errors (300-399)
	ErrCodeProbeUnavailable = "ERR_301_PROBE_UNAVAILABLE"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_MISSING"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryExternal
	case '3':
		return CategoryProbe
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryExternal:
		return SeverityFatal
	case CategoryProbe:
		return SeverityWarning
	default:
		return SeverityError
	}
}
