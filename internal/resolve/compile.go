package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

// DefaultCompileTimeout bounds the compute-configuration process.
const DefaultCompileTimeout = 60 * time.Second

// maxStderrTail is how much of the process stderr is kept for diagnostics.
const maxStderrTail = 2048

// Compiler runs the external compute-configuration command.
type Compiler struct {
	Command []string
	Timeout time.Duration
	// Env is appended to the current environment of the process.
	Env    []string
	Logger *slog.Logger
}

// Compile runs the command in projectRoot and returns its decoded stdout.
// Non-zero exit, timeout and unparsable output all map to
// ExternalResolveFailure.
func (c *Compiler) Compile(ctx context.Context, projectRoot string) (map[string]any, error) {
	if len(c.Command) == 0 {
		return nil, scerrors.ExternalResolveFailure("no compute-configuration command configured", nil)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCompileTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	commandLine := strings.Join(c.Command, " ")
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Running compute-configuration command",
		slog.String("command", commandLine),
		slog.String("dir", projectRoot),
		slog.Duration("timeout", timeout))

	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Dir = projectRoot
	cmd.Env = append(os.Environ(), c.Env...)
	// Children that keep the pipes open must not outlive the deadline.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("Compute-configuration command finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("stdout_bytes", stdout.Len()))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, scerrors.ExternalResolveFailure(
			fmt.Sprintf("%s timed out after %s", commandLine, timeout), ctx.Err()).
			WithDetail("command", commandLine)
	}
	if runErr != nil {
		msg := fmt.Sprintf("%s failed: %v", commandLine, runErr)
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			msg = fmt.Sprintf("%s exited with status %d", commandLine, exitErr.ExitCode())
		}
		return nil, scerrors.ExternalResolveFailure(msg, runErr).
			WithDetail("command", commandLine).
			WithDetail("stderr", tail(stderr.String(), maxStderrTail))
	}

	doc, err := decodeCompiledOutput(stdout.Bytes())
	if err != nil {
		return nil, scerrors.ExternalResolveFailure(
			fmt.Sprintf("%s printed unparsable output: %v", commandLine, err), err).
			WithDetail("command", commandLine)
	}
	return doc, nil
}

// decodeCompiledOutput parses the JSON object on stdout. Package managers
// sometimes print banner lines around it, so when the whole stream does not
// parse the outermost {...} span is tried once.
func decodeCompiledOutput(out []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("no output")
	}

	var doc map[string]any
	err := json.Unmarshal(trimmed, &doc)
	if err == nil && doc != nil {
		return doc, nil
	}

	first := bytes.IndexByte(trimmed, '{')
	last := bytes.LastIndexByte(trimmed, '}')
	if first < 0 || last <= first {
		if err == nil {
			err = fmt.Errorf("output is not a JSON object")
		}
		return nil, err
	}
	if spanErr := json.Unmarshal(trimmed[first:last+1], &doc); spanErr != nil {
		return nil, spanErr
	}
	if doc == nil {
		return nil, fmt.Errorf("output is not a JSON object")
	}
	return doc, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
