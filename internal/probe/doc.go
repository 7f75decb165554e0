// Package probe provides the optional capabilities the rule catalog uses
// opportunistically: reading image pixel dimensions and reporting the
// version-control state of the project.
//
// Every probe is injected as an interface. A nil probe is a valid
// configuration; callers degrade the affected checks to warnings instead of
// treating the absence as an error.
package probe
