package resolve

import (
	"sort"
	"strconv"
)

// Strategy names how a ResolvedConfig was obtained.
type Strategy string

const (
	// StrategyDirect parsed a static document.
	StrategyDirect Strategy = "direct"
	// StrategyCompiled ran the compute-configuration command.
	StrategyCompiled Strategy = "compiled"
)

// Source records where a ResolvedConfig came from.
type Source struct {
	Strategy Strategy `json:"strategy"`
	Envelope string   `json:"envelope"`
	Path     string   `json:"path"`
}

// RuntimeVersion is either a plain version string or a {policy} object.
// Raw holds any other declared value, described with its type.
type RuntimeVersion struct {
	Value  string `json:"value,omitempty"`
	Policy string `json:"policy,omitempty"`
	Raw    string `json:"raw,omitempty"`
}

// String renders the runtime version the way it appears in the document.
func (r RuntimeVersion) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	if r.Policy != "" {
		return `{policy:"` + r.Policy + `"}`
	}
	return strconv.Quote(r.Value)
}

// AdaptiveIcon is the Android adaptive launcher icon declaration.
type AdaptiveIcon struct {
	ForegroundImage string `json:"foreground_image,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
}

// ResolvedConfig is the canonical configuration snapshot. It has the same
// shape whatever envelope or strategy produced it, and is read-only after
// resolution.
type ResolvedConfig struct {
	AndroidPackage string          `json:"android_package,omitempty"`
	IOSBundleID    string          `json:"ios_bundle_id,omitempty"`
	Scheme         string          `json:"scheme,omitempty"`
	RuntimeVersion *RuntimeVersion `json:"runtime_version,omitempty"`

	// TargetSDK is nil when absent or not numeric; TargetSDKRaw keeps a
	// non-numeric value for reporting.
	TargetSDK    *int   `json:"target_sdk,omitempty"`
	TargetSDKRaw string `json:"target_sdk_raw,omitempty"`

	NewArchEnabled *bool  `json:"new_arch_enabled,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`

	Icon         string        `json:"icon,omitempty"`
	SplashImage  string        `json:"splash_image,omitempty"`
	AdaptiveIcon *AdaptiveIcon `json:"adaptive_icon,omitempty"`
	IOSIcon      string        `json:"ios_icon,omitempty"`

	// Invalid maps a document field path such as "android.package" to the
	// declared value when its type cannot hold the field. The field itself
	// is left unset.
	Invalid map[string]string `json:"invalid,omitempty"`

	// ProjectRoot is the absolute directory asset paths resolve against.
	ProjectRoot string `json:"project_root"`
	Source      Source `json:"source"`
}

// AssetPaths lists every declared asset path, sorted and deduplicated.
func (c *ResolvedConfig) AssetPaths() []string {
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" {
			seen[p] = true
		}
	}
	add(c.Icon)
	add(c.SplashImage)
	add(c.IOSIcon)
	if c.AdaptiveIcon != nil {
		add(c.AdaptiveIcon.ForegroundImage)
		add(c.AdaptiveIcon.BackgroundImage)
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// InvalidValue returns the first of paths that was declared with a value of
// the wrong type, and that value.
func (c *ResolvedConfig) InvalidValue(paths ...string) (string, string, bool) {
	for _, p := range paths {
		if v, ok := c.Invalid[p]; ok {
			return p, v, true
		}
	}
	return "", "", false
}
