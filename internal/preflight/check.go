package preflight

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/shipcheck/internal/assets"
	"github.com/Aman-CERP/shipcheck/internal/config"
	"github.com/Aman-CERP/shipcheck/internal/finding"
	"github.com/Aman-CERP/shipcheck/internal/probe"
	"github.com/Aman-CERP/shipcheck/internal/resolve"
)

// DefaultProfile is the build profile checked when none is named.
const DefaultProfile = "production"

// DefaultMinTargetSDK is the lowest Android target SDK accepted by stores.
const DefaultMinTargetSDK = 35

// DefaultReservedPrefixes are placeholder identifier prefixes that stores
// reject. Matching is case-insensitive.
var DefaultReservedPrefixes = []string{
	"com.example.",
	"br.example.",
	"com.test.",
	"com.demo.",
	"com.sample.",
	"org.example.",
}

// Input is the read-only state a single evaluation runs against.
type Input struct {
	Config   *resolve.ResolvedConfig
	Profiles resolve.BuildProfiles
}

// Checker evaluates the rule catalog.
type Checker struct {
	dims     probe.DimensionProbe
	vcs      probe.VCSProbe
	profile  string
	minSDK   int
	reserved []string
	lockfile []string
	logger   *slog.Logger
	rules    []rule
}

// Option configures a Checker.
type Option func(*Checker)

// WithDimensionProbe sets the image dimension probe. Nil disables
// dimension checks.
func WithDimensionProbe(p probe.DimensionProbe) Option {
	return func(c *Checker) {
		c.dims = p
	}
}

// WithVCSProbe sets the working-tree probe. Nil degrades the VCS rule to a
// warning.
func WithVCSProbe(p probe.VCSProbe) Option {
	return func(c *Checker) {
		c.vcs = p
	}
}

// WithProfile names the build profile to check.
func WithProfile(name string) Option {
	return func(c *Checker) {
		if name != "" {
			c.profile = name
		}
	}
}

// WithTargetSDK sets the minimum accepted target SDK.
func WithTargetSDK(level int) Option {
	return func(c *Checker) {
		if level > 0 {
			c.minSDK = level
		}
	}
}

// WithReservedPrefixes adds identifier prefixes to the reserved set.
func WithReservedPrefixes(prefixes ...string) Option {
	return func(c *Checker) {
		for _, p := range prefixes {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				c.reserved = append(c.reserved, p)
			}
		}
	}
}

// WithLockfiles replaces the recognized lockfile names.
func WithLockfiles(names ...string) Option {
	return func(c *Checker) {
		if len(names) > 0 {
			c.lockfile = append([]string(nil), names...)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		profile:  DefaultProfile,
		minSDK:   DefaultMinTargetSDK,
		reserved: append([]string(nil), DefaultReservedPrefixes...),
		lockfile: append([]string(nil), config.DefaultLockfiles...),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rules = catalog()
	return c
}

// Profile returns the build profile name the checker evaluates.
func (c *Checker) Profile() string {
	return c.profile
}

// Rules returns the catalog rule IDs in evaluation order.
func (c *Checker) Rules() []string {
	ids := make([]string, len(c.rules))
	for i, r := range c.rules {
		ids[i] = r.id
	}
	return ids
}

// Evaluate runs every rule in catalog order and returns the concatenated
// findings. The result depends only on in and the configured probes.
func (c *Checker) Evaluate(ctx context.Context, in Input) []finding.Finding {
	cfg := in.Config
	if cfg == nil {
		cfg = &resolve.ResolvedConfig{}
	}
	ev := &evaluation{
		Checker:   c,
		ctx:       ctx,
		cfg:       cfg,
		profiles:  in.Profiles,
		inspector: assets.NewInspector(cfg.ProjectRoot, c.dims, c.logger),
	}

	var out []finding.Finding
	gateOpen := true
	for _, r := range c.rules {
		if r.profileDependent && !gateOpen {
			c.logger.Debug("Skipping profile-dependent rule",
				slog.String("rule", r.id),
				slog.String("profile", c.profile))
			continue
		}
		found := r.eval(ev)
		if r.gate && finding.HasFailure(found) {
			gateOpen = false
		}
		c.logger.Debug("Rule evaluated",
			slog.String("rule", r.id),
			slog.Int("findings", len(found)),
			slog.String("verdict", finding.Verdict(found).String()))
		out = append(out, found...)
	}
	return out
}

// evaluation is the per-run state handed to each rule.
type evaluation struct {
	*Checker
	ctx       context.Context
	cfg       *resolve.ResolvedConfig
	profiles  resolve.BuildProfiles
	inspector *assets.Inspector
}

// rule is one catalog entry.
type rule struct {
	id string
	// gate rules close the gate for profileDependent rules when they fail.
	gate             bool
	profileDependent bool
	eval             func(*evaluation) []finding.Finding
}

// Catalog rule IDs, in evaluation order.
const (
	RuleAndroidIdentity        = "android-identity"
	RuleIOSIdentity            = "ios-identity"
	RuleScheme                 = "scheme"
	RuleRuntimeVersion         = "runtime-version"
	RuleTargetSDK              = "target-sdk"
	RuleNewArchitecture        = "new-architecture"
	RuleBuildProfile           = "build-profile"
	RuleAutoIncrement          = "auto-increment"
	RuleEnv                    = "env"
	RuleProjectID              = "project-id"
	RuleLockfile               = "lockfile"
	RuleVCSClean               = "vcs-clean"
	RuleDimensionProbe         = "dimension-probe"
	RuleIcon                   = "icon"
	RuleSplash                 = "splash"
	RuleAdaptiveIconForeground = "adaptive-icon-foreground"
	RuleAdaptiveIconBackground = "adaptive-icon-background"
	RuleIOSIcon                = "ios-icon"
)

func catalog() []rule {
	return []rule{
		{id: RuleAndroidIdentity, eval: checkAndroidIdentity},
		{id: RuleIOSIdentity, eval: checkIOSIdentity},
		{id: RuleScheme, eval: checkScheme},
		{id: RuleRuntimeVersion, eval: checkRuntimeVersion},
		{id: RuleTargetSDK, eval: checkTargetSDK},
		{id: RuleNewArchitecture, eval: checkNewArchitecture},
		{id: RuleBuildProfile, gate: true, eval: checkBuildProfile},
		{id: RuleAutoIncrement, profileDependent: true, eval: checkAutoIncrement},
		{id: RuleEnv, profileDependent: true, eval: checkEnv},
		{id: RuleProjectID, eval: checkProjectID},
		{id: RuleLockfile, eval: checkLockfile},
		{id: RuleVCSClean, eval: checkVCSClean},
		{id: RuleDimensionProbe, eval: checkDimensionProbe},
		{id: RuleIcon, eval: checkIcon},
		{id: RuleSplash, eval: checkSplash},
		{id: RuleAdaptiveIconForeground, eval: checkAdaptiveIconForeground},
		{id: RuleAdaptiveIconBackground, eval: checkAdaptiveIconBackground},
		{id: RuleIOSIcon, eval: checkIOSIcon},
	}
}
