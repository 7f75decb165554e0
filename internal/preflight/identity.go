package preflight

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/shipcheck/internal/finding"
)

const (
	subjectAndroidPackage = "android.package"
	subjectIOSBundleID    = "ios.bundleIdentifier"
	subjectScheme         = "scheme"
	subjectRuntime        = "runtimeVersion"
	subjectTargetSDK      = "android.targetSdkVersion"
	subjectNewArch        = "newArchEnabled"
)

// wrongType builds a finding for the first of paths declared with a value
// of the wrong type.
func (ev *evaluation) wrongType(sev finding.Severity, subject, want string, paths ...string) ([]finding.Finding, bool) {
	path, value, ok := ev.cfg.InvalidValue(paths...)
	if !ok {
		return nil, false
	}
	f := finding.Finding{
		Severity: sev,
		Subject:  subject,
		Message:  fmt.Sprintf("%s is %s, expected %s", path, value, want),
	}
	return []finding.Finding{f}, true
}

func checkAndroidIdentity(ev *evaluation) []finding.Finding {
	return ev.identity(subjectAndroidPackage, ev.cfg.AndroidPackage, "android.package", "android")
}

func checkIOSIdentity(ev *evaluation) []finding.Finding {
	return ev.identity(subjectIOSBundleID, ev.cfg.IOSBundleID, "ios.bundleIdentifier", "ios")
}

func (ev *evaluation) identity(subject, value string, paths ...string) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subject, "a string", paths...); ok {
		return out
	}
	if strings.TrimSpace(value) == "" {
		return []finding.Finding{finding.Failf(subject, "not set")}
	}
	if prefix, ok := ev.reservedPrefix(value); ok {
		return []finding.Finding{finding.Failf(subject, "%q uses reserved placeholder prefix %q", value, prefix)}
	}
	return []finding.Finding{finding.Passf(subject, "%s", value)}
}

// reservedPrefix returns the reserved prefix value starts with, if any.
func (c *Checker) reservedPrefix(value string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(value))
	for _, p := range c.reserved {
		if strings.HasPrefix(lower, p) {
			return p, true
		}
	}
	return "", false
}

func checkScheme(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Warn, subjectScheme, "a string or list of strings", "scheme"); ok {
		return out
	}
	if ev.cfg.Scheme == "" {
		return []finding.Finding{finding.Warnf(subjectScheme, "not set; deep links and OAuth redirects will not open the app")}
	}
	return []finding.Finding{finding.Passf(subjectScheme, "%s", ev.cfg.Scheme)}
}

const fingerprintPolicy = "fingerprint"

func checkRuntimeVersion(ev *evaluation) []finding.Finding {
	rv := ev.cfg.RuntimeVersion
	switch {
	case rv == nil:
		return []finding.Finding{finding.Warnf(subjectRuntime, "not set; use {policy:%q} to tie updates to native changes", fingerprintPolicy)}
	case rv.Value == "" && rv.Policy == fingerprintPolicy:
		return []finding.Finding{finding.Passf(subjectRuntime, "%s", rv)}
	default:
		return []finding.Finding{finding.Warnf(subjectRuntime, "%s; prefer {policy:%q}", rv, fingerprintPolicy)}
	}
}

func checkTargetSDK(ev *evaluation) []finding.Finding {
	cfg := ev.cfg
	switch {
	case cfg.TargetSDK == nil && cfg.TargetSDKRaw != "":
		return []finding.Finding{finding.Failf(subjectTargetSDK, "%q is not a number, expected >= %d", cfg.TargetSDKRaw, ev.minSDK)}
	case cfg.TargetSDK == nil:
		return []finding.Finding{finding.Failf(subjectTargetSDK, "not set, expected >= %d", ev.minSDK)}
	case *cfg.TargetSDK < ev.minSDK:
		return []finding.Finding{finding.Failf(subjectTargetSDK, "%d is below the required %d", *cfg.TargetSDK, ev.minSDK)}
	default:
		return []finding.Finding{finding.Passf(subjectTargetSDK, "%d", *cfg.TargetSDK)}
	}
}

func checkNewArchitecture(ev *evaluation) []finding.Finding {
	if _, value, ok := ev.cfg.InvalidValue("newArchEnabled"); ok {
		return []finding.Finding{finding.Passf(subjectNewArch, "%s is not a boolean; treated as enabled", value)}
	}
	if flag := ev.cfg.NewArchEnabled; flag != nil && !*flag {
		return []finding.Finding{finding.Warnf(subjectNewArch, "explicitly false; the legacy architecture is being phased out")}
	}
	return []finding.Finding{finding.Passf(subjectNewArch, "enabled")}
}
