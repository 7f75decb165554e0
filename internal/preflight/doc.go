// Package preflight evaluates the build-readiness rule catalog against a
// resolved app configuration and its build profiles.
//
// The catalog is fixed and ordered. Every rule runs unconditionally except
// the profile-dependent rules, which are skipped when the named build
// profile is absent. Rules report outcomes as findings; they never return
// errors, so one bad field cannot hide unrelated problems.
//
// Use the Checker type to evaluate a project:
//
//	checker := preflight.New(preflight.WithDimensionProbe(probe.NewCached(probe.ImageDecoder{}, 0)))
//	findings := checker.Evaluate(ctx, preflight.Input{Config: cfg, Profiles: profiles})
//	if finding.HasFailure(findings) {
//	    // Block the build
//	}
package preflight
