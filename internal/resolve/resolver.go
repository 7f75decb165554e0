package resolve

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

// DefaultConfigName is the conventional static app config file.
const DefaultConfigName = "app.json"

// DefaultProfileName is the conventional build-profile document.
const DefaultProfileName = "eas.json"

// compiledConfigNames are looked up, in order, when no static config exists.
var compiledConfigNames = []string{"app.config.ts", "app.config.js", "app.config.mjs", "app.config.cjs"}

// compiledExtensions mark programmatic configs that need CompiledResolve.
var compiledExtensions = map[string]bool{".js": true, ".ts": true, ".mjs": true, ".cjs": true}

// Resolver obtains a ResolvedConfig using DirectParse or CompiledResolve.
type Resolver struct {
	compiler *Compiler
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCommand sets the compute-configuration command argv.
func WithCommand(argv []string) Option {
	return func(r *Resolver) {
		r.compiler.Command = append([]string(nil), argv...)
	}
}

// WithTimeout bounds the compute-configuration command.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.compiler.Timeout = d
	}
}

// WithEnv adds environment entries (KEY=VALUE) for the command.
func WithEnv(env ...string) Option {
	return func(r *Resolver) {
		r.compiler.Env = append(r.compiler.Env, env...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
		r.compiler.Logger = logger
	}
}

// New creates a Resolver with the given options.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		compiler: &Compiler{Timeout: DefaultCompileTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsCompiled reports whether path names a programmatic config.
func IsCompiled(path string) bool {
	return compiledExtensions[strings.ToLower(filepath.Ext(path))]
}

// DefaultConfigPath picks the config document in dir: app.json if present,
// otherwise the first programmatic config found, otherwise app.json (which
// Resolve will then report as missing).
func DefaultConfigPath(dir string) string {
	static := filepath.Join(dir, DefaultConfigName)
	if fileExists(static) {
		return static
	}
	for _, name := range compiledConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return static
}

// Resolve produces the canonical snapshot for the config document at path.
// It is attempted once; every failure is a fatal precondition.
func (r *Resolver) Resolve(ctx context.Context, path string) (*ResolvedConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, scerrors.ConfigMissing(path, err)
	}
	root := filepath.Dir(absPath)

	var (
		doc      map[string]any
		strategy Strategy
	)
	if IsCompiled(absPath) {
		strategy = StrategyCompiled
		if !fileExists(absPath) {
			return nil, scerrors.ConfigMissing(path, os.ErrNotExist)
		}
		doc, err = r.compiler.Compile(ctx, root)
		if err != nil {
			return nil, err
		}
	} else {
		strategy = StrategyDirect
		doc, err = readDocument(absPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, scerrors.ConfigMissing(path, err)
			}
			return nil, scerrors.ConfigMalformed(path, err)
		}
	}

	payload, envelopeName, err := normalize(doc)
	if err != nil {
		return nil, malformed(strategy, path, err)
	}
	cfg := decodePayload(payload)
	cfg.ProjectRoot = root
	cfg.Source = Source{Strategy: strategy, Envelope: envelopeName, Path: absPath}

	r.logger.Debug("Resolved configuration",
		slog.String("path", absPath),
		slog.String("strategy", string(strategy)),
		slog.String("envelope", envelopeName),
		slog.Int("invalid_fields", len(cfg.Invalid)))
	return cfg, nil
}

// malformed maps a shape error to the failure class of the strategy.
func malformed(strategy Strategy, path string, err error) error {
	if strategy == StrategyCompiled {
		return scerrors.ExternalResolveFailure("compute-configuration output has an unexpected shape: "+err.Error(), err).
			WithDetail("path", path)
	}
	return scerrors.ConfigMalformed(path, err)
}

// fileExists checks if a regular file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
