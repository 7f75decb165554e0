package cmd

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureAppJSON = `{
  "expo": {
    "name": "Acme",
    "scheme": "acme",
    "runtimeVersion": {"policy": "fingerprint"},
    "icon": "./assets/icon.png",
    "ios": {"bundleIdentifier": "com.acme.app"},
    "android": {"package": "com.acme.app", "targetSdkVersion": 35},
    "extra": {"eas": {"projectId": "0f6a1c4e-1111-2222-3333-444455556666"}}
  }
}`

const fixtureEASJSON = `{
  "build": {
    "preview": {"autoIncrement": false, "env": {"API_URL": "https://staging"}},
    "production": {"autoIncrement": true, "env": {"API_URL": "https://api"}}
  }
}`

// project lays out a compliant Expo project, isolates user config, and
// changes into it.
func project(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"SHIPCHECK_PROFILE", "SHIPCHECK_PROBE_MODE", "SHIPCHECK_LOG_LEVEL", "SHIPCHECK_VCS_ENABLED"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	writeFile(t, dir, "app.json", fixtureAppJSON)
	writeFile(t, dir, "eas.json", fixtureEASJSON)
	writeFile(t, dir, "package-lock.json", "{}")

	iconPath := filepath.Join(dir, "assets", "icon.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(iconPath), 0o755))
	f, err := os.Create(iconPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 1024, 1024))))
	require.NoError(t, f.Close())

	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout, stderr, and
// the exit status Execute would return.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	finish()
	code := exitStatus(err, stderr)
	return stdout.String(), stderr.String(), code
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
