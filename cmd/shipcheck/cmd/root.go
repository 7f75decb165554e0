// Package cmd provides the CLI commands for shipcheck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shipcheck/internal/config"
	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
	"github.com/Aman-CERP/shipcheck/internal/logging"
	"github.com/Aman-CERP/shipcheck/internal/output"
	"github.com/Aman-CERP/shipcheck/internal/profiling"
	"github.com/Aman-CERP/shipcheck/internal/report"
	"github.com/Aman-CERP/shipcheck/internal/ui"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
	"github.com/Aman-CERP/shipcheck/pkg/version"
)

// Logging flags
var (
	debugMode      bool
	verboseMode    bool
	loggingCleanup func()
)

// Profiling flags
var (
	profileOpts    profiling.Options
	profileSession *profiling.Session
)

// ExitError ends the process with Code after its output was already written.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// checkFlags are the flags shared by the check and watch commands.
type checkFlags struct {
	profile        string
	jsonOutput     bool
	noColor        bool
	probeMode      string
	noVCS          bool
	compileTimeout time.Duration
}

func (f *checkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profile, "profile", "production", "Build profile to check")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&f.probeMode, "probe", "", "Dimension probe: builtin, command, or none (default from config: builtin)")
	cmd.Flags().BoolVar(&f.noVCS, "no-vcs", false, "Skip the working tree check")
	cmd.Flags().DurationVar(&f.compileTimeout, "compile-timeout", 0, "Timeout for resolving app.config.js/ts (default from config: 60s)")
}

// NewRootCmd creates the root command for shipcheck CLI.
func NewRootCmd() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "shipcheck [config-path] [profile-path]",
		Short: "Pre-flight validation for Expo/EAS mobile builds",
		Long: `shipcheck validates an Expo app config and its EAS build profiles
before a cloud build is started, so store-rejected identifiers, stale
target SDKs, missing assets and non-incrementing build numbers are caught
locally in a second instead of remotely after twenty minutes.

With no arguments it checks app.json (or app.config.*) and eas.json in
the current directory against the production profile.

Exit status is 0 when no check failed, 1 otherwise.`,
		Example: `  # Check the current project
  shipcheck

  # Check explicit documents against the preview profile
  shipcheck app.json eas.json --profile preview

  # Machine-readable report
  shipcheck --json`,
		Version:       version.Version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, flags)
		},
	}

	cmd.SetVersionTemplate("shipcheck version {{.Version}}\n")

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Output the report as JSON")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.shipcheck/logs/")
	cmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Log progress to stderr")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "cpuprofile", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "memprofile", "", "Write heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "trace", "", "Write execution trace to file")
	for _, name := range []string{"cpuprofile", "memprofile", "trace"} {
		_ = cmd.PersistentFlags().MarkHidden(name)
	}

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		finish()
		return nil
	}

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs the default logger (a rotating JSON
// file with --debug, otherwise text on stderr) and starts any requested
// profiles.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if err := startLogging(cmd); err != nil {
		return err
	}
	if !profileOpts.Enabled() {
		return nil
	}
	s, err := profiling.Start(profileOpts)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	profileSession = s
	return nil
}

func startLogging(cmd *cobra.Command) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Debug("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
		return nil
	}

	level := "warn"
	if verboseMode {
		level = "info"
	}
	slog.SetDefault(logging.Console(cmd.ErrOrStderr(), level))
	return nil
}

// finish stops profiling and closes the debug log file. Cobra skips the
// post-run hook when a command fails, so Execute calls it too.
func finish() {
	if profileSession != nil {
		if err := profileSession.Stop(); err != nil {
			slog.Warn("Failed to write profiles", slog.String("error", err.Error()))
		} else {
			slog.Debug("Profiles written",
				slog.String("heap_in_use", profiling.FormatBytes(profiling.HeapInUse())))
		}
		profileSession = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := NewRootCmd().Execute()
	finish()
	return exitStatus(err, os.Stderr)
}

// exitStatus maps a command error to a status, printing errors whose
// output was not already written.
func exitStatus(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var ce *scerrors.CheckError
	if errors.As(err, &ce) {
		_, _ = io.WriteString(stderr, scerrors.FormatForCLI(err))
		return 1
	}
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// loadConfig loads the tool configuration for the working directory.
func loadConfig() (*config.Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", scerrors.InternalError("cannot determine working directory", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, dir, scerrors.ToolConfigInvalid("cannot load shipcheck configuration", err)
	}
	return cfg, dir, nil
}

// newRunner builds a Runner from the tool configuration and flags.
func newRunner(cfg *config.Config, f *checkFlags) (*shipcheck.Runner, error) {
	opts := []shipcheck.Option{
		shipcheck.WithConfig(cfg),
		shipcheck.WithLogger(slog.Default()),
	}
	if f.probeMode != "" {
		opts = append(opts, shipcheck.WithProbeMode(f.probeMode))
	}
	if f.noVCS {
		opts = append(opts, shipcheck.WithoutVCS())
	}
	if f.compileTimeout > 0 {
		opts = append(opts, shipcheck.WithCompileTimeout(f.compileTimeout))
	}
	return shipcheck.New(opts...)
}

// request builds the run request from positional args and flags.
func request(cmd *cobra.Command, dir string, cfg *config.Config, args []string, f *checkFlags) shipcheck.Request {
	req := shipcheck.Request{Dir: dir, Profile: cfg.Profile}
	if cmd.Flags().Changed("profile") {
		req.Profile = f.profile
	}
	if len(args) > 0 {
		req.ConfigPath = args[0]
	}
	if len(args) > 1 {
		req.ProfilePath = args[1]
	}
	return req
}

// runCheck runs a single check and renders it.
func runCheck(cmd *cobra.Command, args []string, f *checkFlags) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return renderFatal(cmd, f, err)
	}
	runner, err := newRunner(cfg, f)
	if err != nil {
		return renderFatal(cmd, f, err)
	}

	req := request(cmd, dir, cfg, args, f)
	res, err := runner.Run(contextOf(cmd), req)
	if err != nil {
		return renderFatal(cmd, f, err)
	}

	stdout := cmd.OutOrStdout()
	reporter := report.NewReporter(stdout,
		report.WithJSON(f.jsonOutput),
		report.WithStyles(ui.GetStyles(stdout, f.noColor)),
		report.WithTarget(res.ConfigPath, res.Profile),
	)
	if err := reporter.Render(res.Report); err != nil {
		return err
	}

	if verboseMode && !f.jsonOutput {
		out := output.New(cmd.ErrOrStderr())
		out.Statusf("⏱️", "Checked %s (%s) in %s", res.ConfigPath, res.Profile, res.Duration.Round(time.Millisecond))
	}
	if code := res.Report.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// renderFatal reports a precondition failure: JSON on stdout with --json,
// otherwise the CLI format on stderr.
func renderFatal(cmd *cobra.Command, f *checkFlags, err error) error {
	w := cmd.ErrOrStderr()
	if f.jsonOutput {
		w = cmd.OutOrStdout()
	}
	if rerr := report.NewReporter(w, report.WithJSON(f.jsonOutput)).RenderFatal(err); rerr != nil {
		return rerr
	}
	return &ExitError{Code: 1}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
