// Package assets checks that image assets referenced by the app config
// exist and, when a dimension probe is configured, have the expected size.
package assets

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/shipcheck/internal/finding"
	"github.com/Aman-CERP/shipcheck/internal/probe"
)

// IconSize is the required edge length for store icons.
const IconSize = 1024

// Inspector resolves asset paths against a project root.
type Inspector struct {
	root   string
	probe  probe.DimensionProbe
	logger *slog.Logger
}

// NewInspector creates an Inspector. dims may be nil, in which case only
// existence is checked.
func NewInspector(root string, dims probe.DimensionProbe, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{root: root, probe: dims, logger: logger}
}

// ProbeAvailable reports whether dimension checks will run.
func (i *Inspector) ProbeAvailable() bool {
	return i.probe != nil
}

// Resolve returns the filesystem path of an asset reference.
func (i *Inspector) Resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(i.root, filepath.FromSlash(ref))
}

// CheckAsset checks existence of ref and, when width and height are
// positive and a probe is set, its pixel dimensions. A missing file stops
// the check after the FAIL.
func (i *Inspector) CheckAsset(subject, ref string, width, height int) []finding.Finding {
	path := i.Resolve(ref)

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return []finding.Finding{finding.Failf(subject, "file not found: %s", ref)}
	case info.IsDir():
		return []finding.Finding{finding.Failf(subject, "%s is a directory, expected an image file", ref)}
	}

	out := []finding.Finding{finding.Passf(subject, "found %s", ref)}
	if i.probe == nil || width <= 0 || height <= 0 {
		return out
	}

	w, h, err := i.probe.Dimensions(path)
	if err != nil {
		i.logger.Debug("Dimension probe failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return append(out, finding.Failf(subject, "cannot read dimensions of %s: %v", ref, err))
	}
	if w != width || h != height {
		return append(out, finding.Failf(subject, "%s is %dx%d, expected %dx%d", ref, w, h, width, height))
	}
	return append(out, finding.Passf(subject, "%s is %dx%d", ref, w, h))
}
