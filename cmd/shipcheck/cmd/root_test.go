package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	stdout, _, code := execute(t, "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "shipcheck [config-path] [profile-path]")
	assert.Contains(t, stdout, "--profile")
	assert.Contains(t, stdout, "--compile-timeout")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	stdout, _, code := execute(t, "--version")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "shipcheck version")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, sub := range NewRootCmd().Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"watch", "serve", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_CompliantProjectPasses(t *testing.T) {
	// Given: a compliant project in the working directory
	project(t)

	// When: running with no arguments
	stdout, stderr, code := execute(t, "--no-vcs")

	// Then: nothing fails, the skipped VCS check warns, and the status is 0
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[PASS] android.package: ")
	assert.Contains(t, stdout, "[PASS] build.production.autoIncrement")
	assert.Contains(t, stdout, "[WARN] vcs: working tree state not checked")
	assert.NotContains(t, stdout, "[FAIL]")
	assert.Contains(t, stdout, "Result: WARN (")
}

func TestRootCmd_FailingProfileExitsOne(t *testing.T) {
	// Given: a project whose preview profile disables autoIncrement
	project(t)

	// When: checking the preview profile
	stdout, _, code := execute(t, "--no-vcs", "--profile", "preview")

	// Then: the auto-increment rule fails and the status is 1
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "[FAIL] build.preview.autoIncrement: autoIncrement is not true")
	assert.Contains(t, stdout, "Result: FAIL (")
}

func TestRootCmd_ProfileFromProjectConfig(t *testing.T) {
	// Given: a project config selecting the preview profile
	dir := project(t)
	writeFile(t, dir, ".shipcheck.yaml", "profile: preview\n")

	// When: running without --profile
	stdout, _, code := execute(t, "--no-vcs")

	// Then: the configured profile is checked
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "build.preview.autoIncrement")

	// When: the flag is given
	stdout, _, code = execute(t, "--no-vcs", "--profile", "production")

	// Then: the flag wins
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "build.production.autoIncrement")
}

func TestRootCmd_PositionalPaths(t *testing.T) {
	// Given: documents under non-default names
	dir := project(t)
	require.NoError(t, os.Rename(filepath.Join(dir, "app.json"), filepath.Join(dir, "store.json")))
	require.NoError(t, os.Rename(filepath.Join(dir, "eas.json"), filepath.Join(dir, "profiles.json")))

	// When: passing both paths
	stdout, stderr, code := execute(t, "--no-vcs", "store.json", "profiles.json")

	// Then: they are checked
	assert.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "[FAIL]")
}

func TestRootCmd_TooManyArgs(t *testing.T) {
	_, stderr, code := execute(t, "a.json", "b.json", "c.json")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts at most 2 arg(s)")
}

func TestRootCmd_JSONReport(t *testing.T) {
	// Given: a compliant project
	project(t)

	// When: running with --json and probe none
	stdout, _, code := execute(t, "--no-vcs", "--json", "--probe", "none")

	// Then: a JSON document with the disclosure warning is printed
	assert.Equal(t, 0, code)
	var doc struct {
		Verdict  string `json:"verdict"`
		ExitCode int    `json:"exit_code"`
		Profile  string `json:"profile"`
		Config   string `json:"config"`
		Findings []struct {
			Severity string `json:"severity"`
			Subject  string `json:"subject"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), stdout)
	assert.Equal(t, "WARN", doc.Verdict)
	assert.Equal(t, 0, doc.ExitCode)
	assert.Equal(t, "production", doc.Profile)
	assert.Equal(t, "app.json", filepath.Base(doc.Config))
	assert.True(t, filepath.IsAbs(doc.Config))

	warns := 0
	for _, f := range doc.Findings {
		if f.Subject == "assets" {
			warns++
			assert.Equal(t, "WARN", f.Severity)
		}
	}
	assert.Equal(t, 1, warns)
}

func TestRootCmd_MissingProfileIsFatal(t *testing.T) {
	// Given: a project without a staging profile
	project(t)

	// When: checking staging as text
	stdout, stderr, code := execute(t, "--no-vcs", "--profile", "staging")

	// Then: no findings, the error on stderr, status 1
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `build profile "staging" not defined`)
	assert.Contains(t, stderr, scerrors.ErrCodeProfileMissing)

	// When: checking staging as JSON
	stdout, _, code = execute(t, "--no-vcs", "--profile", "staging", "--json")

	// Then: the error is a JSON document on stdout
	assert.Equal(t, 1, code)
	var doc struct {
		Verdict  string `json:"verdict"`
		ExitCode int    `json:"exit_code"`
		Error    struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), stdout)
	assert.Equal(t, "FAIL", doc.Verdict)
	assert.Equal(t, 1, doc.ExitCode)
	assert.Equal(t, scerrors.ErrCodeProfileMissing, doc.Error.Code)
}

func TestRootCmd_MissingConfigIsFatal(t *testing.T) {
	dir := project(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "app.json")))

	stdout, stderr, code := execute(t, "--no-vcs")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, scerrors.ErrCodeConfigMissing)
}

func TestRootCmd_InvalidToolConfig(t *testing.T) {
	dir := project(t)
	writeFile(t, dir, ".shipcheck.yaml", "probe:\n  mode: telepathy\n")

	_, stderr, code := execute(t)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, scerrors.ErrCodeToolConfigInvalid)
}

func TestRootCmd_Verbose(t *testing.T) {
	project(t)

	_, stderr, code := execute(t, "--no-vcs", "--verbose")

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "Check complete")
	assert.Contains(t, stderr, "Checked ")
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		contains string
	}{
		{"nil", nil, 0, ""},
		{"exit error", &ExitError{Code: 1}, 1, ""},
		{"check error", scerrors.ConfigMissing("app.json", nil), 1, scerrors.ErrCodeConfigMissing},
		{"plain error", errors.New("unknown flag: --nope"), 1, "Error: unknown flag: --nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want, exitStatus(tt.err, &buf))
			if tt.contains == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.contains)
			}
		})
	}
}

func TestRootCmd_WritesProfilesOnFailure(t *testing.T) {
	// Given: a project whose preview profile fails
	project(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	heap := filepath.Join(dir, "heap.prof")

	// When: checking it with profiling enabled
	_, _, code := execute(t, "--no-vcs", "--profile", "preview", "--cpuprofile", cpu, "--memprofile", heap)

	// Then: the failing exit still flushes both profiles
	assert.Equal(t, 1, code)
	for _, path := range []string{cpu, heap} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Nil(t, profileSession)
}

func TestRootCmd_ProfilingFlagsHidden(t *testing.T) {
	stdout, _, code := execute(t, "--help")

	assert.Equal(t, 0, code)
	assert.NotContains(t, stdout, "cpuprofile")
}
