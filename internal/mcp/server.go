package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
	"github.com/Aman-CERP/shipcheck/internal/preflight"
	"github.com/Aman-CERP/shipcheck/internal/telemetry"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
	"github.com/Aman-CERP/shipcheck/pkg/version"
)

// ToolValidate is the name of the single tool the server exposes.
const ToolValidate = "validate_build_config"

// CheckRunner runs one pre-flight check. *shipcheck.Runner implements it.
type CheckRunner interface {
	Run(ctx context.Context, req shipcheck.Request) (*shipcheck.Result, error)
}

// Server is the MCP server for shipcheck.
// It lets AI clients validate a build configuration before submitting it.
type Server struct {
	mcp     *mcp.Server
	runner  CheckRunner
	rules   []string
	metrics *telemetry.CheckMetrics
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the collector behind the metrics resource.
func WithMetrics(m *telemetry.CheckMetrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewServer creates a new MCP server backed by runner.
func NewServer(runner CheckRunner, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, errors.New("check runner is required")
	}

	s := &Server{
		runner:  runner,
		rules:   preflight.New().Rules(),
		metrics: telemetry.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    version.Name,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return version.Name, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{toolValidate}
}

var toolValidate = ToolInfo{
	Name: ToolValidate,
	Description: "Validate an Expo/EAS mobile build configuration before starting a cloud build. " +
		"Checks app identity, target SDK, runtime version, the selected build profile, lockfile, " +
		"working tree and icon/splash assets. Returns PASS, WARN or FAIL with one finding per check.",
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolValidate.Name,
		Description: toolValidate.Description,
	}, s.mcpValidateHandler)
	s.logger.Debug("Registered tool", slog.String("name", toolValidate.Name))
}

// mcpValidateHandler is the MCP SDK handler for the validate tool. A fatal
// precondition is reported in the output, not as a protocol error.
func (s *Server) mcpValidateHandler(ctx context.Context, _ *mcp.CallToolRequest, input ValidateInput) (
	*mcp.CallToolResult,
	ValidateOutput,
	error,
) {
	out, err := s.Validate(ctx, input)
	if err != nil {
		return nil, ValidateOutput{}, MapError(err)
	}
	return nil, out, nil
}

// Validate runs one check for input.
func (s *Server) Validate(ctx context.Context, input ValidateInput) (ValidateOutput, error) {
	requestID := generateRequestID()
	start := time.Now()
	logger := s.logger.With(slog.String("request_id", requestID))

	res, err := s.runner.Run(ctx, shipcheck.Request{
		Dir:         input.Dir,
		ConfigPath:  input.ConfigPath,
		ProfilePath: input.ProfilePath,
		Profile:     input.Profile,
	})
	if err != nil {
		if scerrors.IsFatalPrecondition(err) {
			elapsed := time.Since(start)
			s.metrics.Record(telemetry.CheckEvent{
				FatalCode: scerrors.GetCode(err),
				Latency:   elapsed,
				Timestamp: start,
			})
			logger.Info("Validation aborted",
				slog.String("code", scerrors.GetCode(err)),
				slog.Duration("duration", elapsed))
			return fatalOutput(err), nil
		}
		logger.Error("Validation failed", scerrors.LogAttrs(err)...)
		return ValidateOutput{}, err
	}

	out := toValidateOutput(res)
	elapsed := time.Since(start)
	s.metrics.Record(checkEvent(out, start, elapsed))
	logger.Info("Validation complete",
		slog.String("verdict", out.Verdict),
		slog.Int("findings", len(out.Findings)),
		slog.Duration("duration", elapsed))
	return out, nil
}

// Metrics returns the collector recording every validation.
func (s *Server) Metrics() *telemetry.CheckMetrics {
	return s.metrics
}

func checkEvent(out ValidateOutput, start time.Time, elapsed time.Duration) telemetry.CheckEvent {
	ev := telemetry.CheckEvent{Verdict: out.Verdict, Latency: elapsed, Timestamp: start}
	for _, f := range out.Findings {
		switch f.Severity {
		case "FAIL":
			ev.Failed = append(ev.Failed, f.Subject)
		case "WARN":
			ev.Warned = append(ev.Warned, f.Subject)
		}
	}
	return ev
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
