package shipcheck

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/shipcheck/internal/config"
	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
	"github.com/Aman-CERP/shipcheck/internal/preflight"
	"github.com/Aman-CERP/shipcheck/internal/probe"
	"github.com/Aman-CERP/shipcheck/internal/report"
	"github.com/Aman-CERP/shipcheck/internal/resolve"
)

// Request names the documents and profile of one run. Empty fields take
// their defaults.
type Request struct {
	// Dir is the project directory. Default: the working directory.
	Dir string
	// ConfigPath is the app config document. Default: app.json in Dir, or
	// the first app.config.* found there.
	ConfigPath string
	// ProfilePath is the build-profile document. Default: eas.json in Dir.
	ProfilePath string
	// Profile is the build profile to check. Default: the configured one.
	Profile string
}

// Result is the outcome of a run that got past its preconditions.
type Result struct {
	ConfigPath  string
	ProfilePath string
	Profile     string
	Config      *resolve.ResolvedConfig
	Profiles    resolve.BuildProfiles
	Report      *report.Aggregator
	Duration    time.Duration
}

// WatchTargets lists the files whose change can alter the result: both
// documents and every declared asset.
func (r *Result) WatchTargets() []string {
	targets := []string{r.ConfigPath, r.ProfilePath}
	if r.Config == nil {
		return targets
	}
	for _, ref := range r.Config.AssetPaths() {
		if filepath.IsAbs(ref) {
			targets = append(targets, filepath.Clean(ref))
			continue
		}
		targets = append(targets, filepath.Join(r.Config.ProjectRoot, ref))
	}
	return targets
}

// Runner executes the pipeline with a fixed tool configuration.
type Runner struct {
	cfg      *config.Config
	dims     probe.DimensionProbe
	dimsSet  bool
	vcs      probe.VCSProbe
	vcsSet   bool
	noVCS    bool
	mode     string
	timeout  time.Duration
	logger   *slog.Logger
	resolver *resolve.Resolver
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfig sets the tool configuration. Default: config.NewConfig().
func WithConfig(cfg *config.Config) Option {
	return func(r *Runner) {
		if cfg != nil {
			r.cfg = cfg
		}
	}
}

// WithProbeMode overrides probe.mode from the configuration.
func WithProbeMode(mode string) Option {
	return func(r *Runner) {
		r.mode = mode
	}
}

// WithDimensionProbe injects a dimension probe, bypassing probe.mode.
// Nil runs without one.
func WithDimensionProbe(p probe.DimensionProbe) Option {
	return func(r *Runner) {
		r.dims = p
		r.dimsSet = true
	}
}

// WithVCSProbe injects a VCS probe. Nil runs without one.
func WithVCSProbe(p probe.VCSProbe) Option {
	return func(r *Runner) {
		r.vcs = p
		r.vcsSet = true
	}
}

// WithoutVCS disables the working-tree check.
func WithoutVCS() Option {
	return func(r *Runner) {
		r.noVCS = true
	}
}

// WithCompileTimeout overrides resolver.timeout from the configuration.
func WithCompileTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runner. An unavailable dimension probe is logged and the
// run continues without one; an unknown probe mode is a
// ToolConfigInvalid error.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:    config.NewConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mode == "" {
		r.mode = r.cfg.Probe.Mode
	}
	if r.timeout <= 0 {
		r.timeout = r.cfg.ResolverTimeout()
	}

	if !r.dimsSet {
		dims, err := probe.ForMode(r.mode, r.cfg.Probe.CacheSize)
		switch {
		case err == nil:
			r.dims = dims
		case scerrors.GetCode(err) == scerrors.ErrCodeProbeUnavailable:
			r.logger.Warn("Dimension probe unavailable, skipping dimension checks",
				scerrors.LogAttrs(err)...)
		default:
			return nil, scerrors.ToolConfigInvalid("invalid probe mode "+r.mode, err)
		}
	}

	switch {
	case r.noVCS || !r.cfg.VCSEnabled():
		r.vcs = nil
	case !r.vcsSet:
		r.vcs = probe.Git{}
	}

	r.resolver = resolve.New(
		resolve.WithCommand(r.cfg.Resolver.Command),
		resolve.WithTimeout(r.timeout),
		resolve.WithLogger(r.logger),
	)
	return r, nil
}

// DimensionProbeAvailable reports whether dimension checks will run.
func (r *Runner) DimensionProbeAvailable() bool {
	return r.dims != nil
}

// Paths fills in the defaults of req without touching the documents.
func (r *Runner) Paths(req Request) (Request, error) {
	if req.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return req, scerrors.InternalError("cannot determine working directory", err)
		}
		req.Dir = wd
	}
	if req.ConfigPath == "" {
		req.ConfigPath = resolve.DefaultConfigPath(req.Dir)
	} else if !filepath.IsAbs(req.ConfigPath) {
		req.ConfigPath = filepath.Join(req.Dir, req.ConfigPath)
	}
	if req.ProfilePath == "" {
		req.ProfilePath = filepath.Join(req.Dir, resolve.DefaultProfileName)
	} else if !filepath.IsAbs(req.ProfilePath) {
		req.ProfilePath = filepath.Join(req.Dir, req.ProfilePath)
	}
	if req.Profile == "" {
		req.Profile = r.cfg.Profile
	}
	return req, nil
}

// Run resolves, loads and evaluates. A returned error is a fatal
// precondition and no findings were produced.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	req, err := r.Paths(req)
	if err != nil {
		return nil, err
	}

	cfg, err := r.resolver.Resolve(ctx, req.ConfigPath)
	if err != nil {
		return nil, r.fatal(err)
	}
	profiles, err := resolve.LoadProfiles(req.ProfilePath)
	if err != nil {
		return nil, r.fatal(err)
	}
	if err := profiles.Require(req.ProfilePath, req.Profile); err != nil {
		return nil, r.fatal(err)
	}

	checker := preflight.New(
		preflight.WithDimensionProbe(r.dims),
		preflight.WithVCSProbe(r.vcs),
		preflight.WithProfile(req.Profile),
		preflight.WithTargetSDK(r.cfg.Rules.MinTargetSDK),
		preflight.WithReservedPrefixes(r.cfg.Rules.ReservedPrefixes...),
		preflight.WithLockfiles(r.cfg.Rules.Lockfiles...),
		preflight.WithLogger(r.logger),
	)
	agg := report.NewAggregator()
	agg.Add(checker.Evaluate(ctx, preflight.Input{Config: cfg, Profiles: profiles})...)

	res := &Result{
		ConfigPath:  req.ConfigPath,
		ProfilePath: req.ProfilePath,
		Profile:     req.Profile,
		Config:      cfg,
		Profiles:    profiles,
		Report:      agg,
		Duration:    time.Since(start),
	}
	r.logger.Info("Check complete",
		slog.String("config", req.ConfigPath),
		slog.String("profile", req.Profile),
		slog.String("verdict", agg.Verdict().String()),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// fatal logs a precondition failure and passes it through. Errors outside
// the CheckError taxonomy are wrapped as internal.
func (r *Runner) fatal(err error) error {
	var ce *scerrors.CheckError
	if !errors.As(err, &ce) {
		err = scerrors.InternalError("check aborted", err)
	}
	r.logger.Warn("Check aborted", scerrors.LogAttrs(err)...)
	return err
}
