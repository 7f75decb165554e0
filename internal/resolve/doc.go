// Package resolve turns app configuration and build-profile documents into
// the canonical snapshot the rule catalog evaluates.
//
// Two strategies produce a ResolvedConfig:
//   - DirectParse reads a static JSON or YAML document (app.json).
//   - CompiledResolve runs an external compute-configuration command
//     (e.g. `npx expo config --json`) for programmatic configs
//     (app.config.js/ts) and parses its standard output.
//
// Both feed the same envelope normalization, which tries a fixed, ordered
// list of known top-level shapes, so callers always see one shape:
//
//	r := resolve.New(resolve.WithCommand(cmd), resolve.WithTimeout(time.Minute))
//	cfg, err := r.Resolve(ctx, "app.json")
//	profiles, err := resolve.LoadProfiles("eas.json")
//	err = profiles.Require("eas.json", "production")
//
// All failures are fatal preconditions from internal/errors.
package resolve
