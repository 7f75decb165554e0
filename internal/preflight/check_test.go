package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shipcheck/internal/finding"
	"github.com/Aman-CERP/shipcheck/internal/probe"
	"github.com/Aman-CERP/shipcheck/internal/resolve"
)

type fakeDims struct {
	w, h int
	err  error
}

func (f fakeDims) Dimensions(string) (int, int, error) { return f.w, f.h, f.err }

type fakeVCS struct {
	status probe.VCSStatus
	err    error
}

func (f fakeVCS) Status(context.Context, string) (probe.VCSStatus, error) { return f.status, f.err }

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// project lays out a passing project on disk and returns its input.
func project(t *testing.T) Input {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range []string{"assets/icon.png", "package-lock.json"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	return Input{
		Config: &resolve.ResolvedConfig{
			AndroidPackage: "com.acme.app",
			IOSBundleID:    "com.acme.app",
			Scheme:         "myapp",
			RuntimeVersion: &resolve.RuntimeVersion{Policy: "fingerprint"},
			TargetSDK:      intPtr(35),
			ProjectID:      "0f6a1c4e-1111-2222-3333-444455556666",
			Icon:           "./assets/icon.png",
			ProjectRoot:    dir,
		},
		Profiles: resolve.BuildProfiles{
			"production": {
				Name:          "production",
				AutoIncrement: true,
				Env:           map[string]string{"API_URL": "https://x"},
			},
		},
	}
}

func passingChecker(opts ...Option) *Checker {
	base := []Option{
		WithDimensionProbe(fakeDims{w: 1024, h: 1024}),
		WithVCSProbe(fakeVCS{status: probe.VCSStatus{Clean: true}}),
	}
	return New(append(base, opts...)...)
}

func bySubject(findings []finding.Finding, subject string) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Subject == subject {
			out = append(out, f)
		}
	}
	return out
}

func only(t *testing.T, findings []finding.Finding, subject string) finding.Finding {
	t.Helper()
	got := bySubject(findings, subject)
	require.Len(t, got, 1, "findings for %s: %v", subject, findings)
	return got[0]
}

func TestChecker_Rules_CatalogOrder(t *testing.T) {
	assert.Equal(t, []string{
		"android-identity", "ios-identity", "scheme", "runtime-version", "target-sdk",
		"new-architecture", "build-profile", "auto-increment", "env", "project-id",
		"lockfile", "vcs-clean", "dimension-probe", "icon", "splash",
		"adaptive-icon-foreground", "adaptive-icon-background", "ios-icon",
	}, New().Rules())
}

func TestChecker_Defaults(t *testing.T) {
	c := New(WithProfile(""), WithTargetSDK(0), WithLockfiles())

	assert.Equal(t, DefaultProfile, c.Profile())
	assert.Equal(t, DefaultMinTargetSDK, c.minSDK)
	assert.Len(t, c.lockfile, 5)
	assert.Nil(t, c.dims)
	assert.Nil(t, c.vcs)
}

func TestEvaluate_EndToEndPass(t *testing.T) {
	// Given: a fully compliant project with a 1024x1024 icon
	in := project(t)

	// When: evaluating
	got := passingChecker().Evaluate(context.Background(), in)

	// Then: every finding passes and the verdict is PASS
	for _, f := range got {
		assert.Equal(t, finding.Pass, f.Severity, f.String())
	}
	assert.Equal(t, finding.Pass, finding.Verdict(got))
	assert.Equal(t, "API_URL", only(t, got, "build.production.env").Message)
}

func TestEvaluate_AutoIncrementFalse(t *testing.T) {
	// Given: the passing project with autoIncrement disabled
	in := project(t)
	prod := in.Profiles["production"]
	prod.AutoIncrement = false
	in.Profiles["production"] = prod

	// When: evaluating
	got := passingChecker().Evaluate(context.Background(), in)

	// Then: exactly the auto-increment rule fails
	f := only(t, got, "build.production.autoIncrement")
	assert.Equal(t, finding.Failf("build.production.autoIncrement", "autoIncrement is not true"), f)
	assert.Equal(t, finding.Fail, finding.Verdict(got))
	fails := 0
	for _, f := range got {
		if f.Severity == finding.Fail {
			fails++
		}
	}
	assert.Equal(t, 1, fails)
}

func TestEvaluate_AutoIncrementStrictlyBoolean(t *testing.T) {
	for _, v := range []any{nil, "true", 1.0, "version"} {
		in := project(t)
		in.Profiles["production"] = resolve.BuildProfile{Name: "production", AutoIncrement: v}

		f := only(t, passingChecker().Evaluate(context.Background(), in), "build.production.autoIncrement")

		assert.Equal(t, finding.Fail, f.Severity, "value %#v", v)
	}
}

func TestEvaluate_Identity(t *testing.T) {
	tests := []struct {
		name    string
		android string
		ios     string
		extra   []string
		wantAnd finding.Severity
		wantIOS finding.Severity
		wantMsg string
	}{
		{name: "example package", android: "com.example.app", ios: "com.acme.app", wantAnd: finding.Fail, wantIOS: finding.Pass, wantMsg: "com.example.app"},
		{name: "case insensitive", android: "COM.Example.App", ios: "Com.Test.thing", wantAnd: finding.Fail, wantIOS: finding.Fail, wantMsg: "com.example."},
		{name: "br example", android: "br.example.app", ios: "org.example.app", wantAnd: finding.Fail, wantIOS: finding.Fail},
		{name: "missing", android: "", ios: "", wantAnd: finding.Fail, wantIOS: finding.Fail, wantMsg: "not set"},
		{name: "prefix needs the dot", android: "com.examples.app", ios: "com.demoapp.x", wantAnd: finding.Pass, wantIOS: finding.Pass},
		{name: "surrounding whitespace", android: " com.example.app", ios: "\tCom.Test.app ", wantAnd: finding.Fail, wantIOS: finding.Fail, wantMsg: "com.example."},
		{name: "configured extra prefix", android: "com.acme.app", ios: "io.placeholder.app", extra: []string{"IO.Placeholder."}, wantAnd: finding.Pass, wantIOS: finding.Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := project(t)
			in.Config.AndroidPackage = tt.android
			in.Config.IOSBundleID = tt.ios

			got := passingChecker(WithReservedPrefixes(tt.extra...)).Evaluate(context.Background(), in)

			android := only(t, got, "android.package")
			assert.Equal(t, tt.wantAnd, android.Severity)
			assert.Equal(t, tt.wantIOS, only(t, got, "ios.bundleIdentifier").Severity)
			if tt.wantMsg != "" {
				assert.Contains(t, android.Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_TargetSDK(t *testing.T) {
	tests := []struct {
		name    string
		sdk     *int
		raw     string
		opts    []Option
		want    finding.Severity
		wantMsg string
	}{
		{name: "34 below threshold", sdk: intPtr(34), want: finding.Fail, wantMsg: "34 is below the required 35"},
		{name: "35 meets threshold", sdk: intPtr(35), want: finding.Pass},
		{name: "36 above threshold", sdk: intPtr(36), want: finding.Pass},
		{name: "absent", want: finding.Fail, wantMsg: "not set"},
		{name: "not numeric", raw: "latest", want: finding.Fail, wantMsg: `"latest"`},
		{name: "raised minimum", sdk: intPtr(35), opts: []Option{WithTargetSDK(36)}, want: finding.Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := project(t)
			in.Config.TargetSDK = tt.sdk
			in.Config.TargetSDKRaw = tt.raw

			f := only(t, passingChecker(tt.opts...).Evaluate(context.Background(), in), "android.targetSdkVersion")

			assert.Equal(t, tt.want, f.Severity)
			if tt.wantMsg != "" {
				assert.Contains(t, f.Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_RuntimeVersion(t *testing.T) {
	tests := []struct {
		name    string
		rv      *resolve.RuntimeVersion
		want    finding.Severity
		wantMsg string
	}{
		{name: "fingerprint policy", rv: &resolve.RuntimeVersion{Policy: "fingerprint"}, want: finding.Pass},
		{name: "plain string", rv: &resolve.RuntimeVersion{Value: "1.0.0"}, want: finding.Warn, wantMsg: `"1.0.0"`},
		{name: "other policy", rv: &resolve.RuntimeVersion{Policy: "appVersion"}, want: finding.Warn, wantMsg: "appVersion"},
		{name: "absent", want: finding.Warn, wantMsg: "not set"},
		{name: "unrecognized shape", rv: &resolve.RuntimeVersion{Raw: `object {"policy":5}`}, want: finding.Warn, wantMsg: `object {"policy":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := project(t)
			in.Config.RuntimeVersion = tt.rv

			f := only(t, passingChecker().Evaluate(context.Background(), in), "runtimeVersion")

			assert.Equal(t, tt.want, f.Severity)
			if tt.wantMsg != "" {
				assert.Contains(t, f.Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_SchemeAndNewArch(t *testing.T) {
	in := project(t)
	in.Config.Scheme = ""
	in.Config.NewArchEnabled = boolPtr(false)

	got := passingChecker().Evaluate(context.Background(), in)

	assert.Equal(t, finding.Warn, only(t, got, "scheme").Severity)
	assert.Equal(t, finding.Warn, only(t, got, "newArchEnabled").Severity)
	assert.Equal(t, finding.Warn, finding.Verdict(got))

	in.Config.NewArchEnabled = boolPtr(true)
	got = passingChecker().Evaluate(context.Background(), in)
	assert.Equal(t, finding.Pass, only(t, got, "newArchEnabled").Severity)
}

func TestEvaluate_WrongTypedFields(t *testing.T) {
	// Given: a project whose document declared several fields with the wrong
	// type; resolution left those fields unset and recorded the values
	in := project(t)
	in.Config.AndroidPackage = ""
	in.Config.Scheme = ""
	in.Config.Icon = ""
	in.Config.ProjectID = ""
	in.Config.Invalid = map[string]string{
		"android.package":      `array ["com.acme.app"]`,
		"scheme":               "number 42",
		"newArchEnabled":       `string "false"`,
		"icon":                 `object {"path":"a.png"}`,
		"splash":               `string "s.png"`,
		"android.adaptiveIcon": `string "fg.png"`,
		"ios.icon":             "number 7",
		"extra":                `string "x"`,
	}

	// When: evaluating
	got := passingChecker().Evaluate(context.Background(), in)

	// Then: each offending field gets its own finding naming the value
	want := map[string]finding.Finding{
		"android.package":                      finding.Failf("android.package", `android.package is array ["com.acme.app"], expected a string`),
		"scheme":                               finding.Warnf("scheme", "scheme is number 42, expected a string or list of strings"),
		"newArchEnabled":                       finding.Passf("newArchEnabled", `string "false" is not a boolean; treated as enabled`),
		"icon":                                 finding.Failf("icon", `icon is object {"path":"a.png"}, expected an asset path`),
		"splash.image":                         finding.Failf("splash.image", `splash is string "s.png", expected an asset path`),
		"android.adaptiveIcon.foregroundImage": finding.Failf("android.adaptiveIcon.foregroundImage", `android.adaptiveIcon is string "fg.png", expected an asset path`),
		"ios.icon":                             finding.Failf("ios.icon", "ios.icon is number 7, expected an asset path or appearance map"),
		"extra.eas.projectId":                  finding.Failf("extra.eas.projectId", `extra is string "x", expected a string`),
	}
	for subject, f := range want {
		if diff := cmp.Diff(f, only(t, got, subject)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", subject, diff)
		}
	}

	// and the unrelated rules still report
	assert.Equal(t, finding.Pass, only(t, got, "ios.bundleIdentifier").Severity)
	assert.Equal(t, finding.Pass, only(t, got, "build.production.autoIncrement").Severity)
	assert.Equal(t, finding.Pass, only(t, got, "lockfile").Severity)
	assert.Empty(t, bySubject(got, "android.adaptiveIcon.background"))
	assert.Equal(t, finding.Fail, finding.Verdict(got))
}

func TestEvaluate_AdaptiveBackgroundWrongType(t *testing.T) {
	in := project(t)
	in.Config.AdaptiveIcon = &resolve.AdaptiveIcon{BackgroundImage: "./assets/icon.png"}
	in.Config.Invalid = map[string]string{"android.adaptiveIcon.backgroundColor": "number 16777215"}

	f := only(t, passingChecker().Evaluate(context.Background(), in), "android.adaptiveIcon.background")

	assert.Equal(t, finding.Fail, f.Severity)
	assert.Equal(t, "android.adaptiveIcon.backgroundColor is number 16777215, expected a string", f.Message)
}

func TestEvaluate_MissingProfileGatesDependentRules(t *testing.T) {
	// Given: profiles without "production"
	in := project(t)
	in.Profiles = resolve.BuildProfiles{"preview": {Name: "preview", AutoIncrement: false}}

	// When: evaluating
	got := passingChecker().Evaluate(context.Background(), in)

	// Then: the profile rule fails and only the dependent rules are skipped
	assert.Equal(t, finding.Fail, only(t, got, "build.production").Severity)
	for _, f := range got {
		assert.False(t, strings.HasPrefix(f.Subject, "build.production."), f.String())
	}
	only(t, got, "extra.eas.projectId")
	only(t, got, "lockfile")
	only(t, got, "vcs")
	assert.Len(t, bySubject(got, "icon"), 2)
}

func TestEvaluate_NamedProfile(t *testing.T) {
	in := project(t)
	in.Profiles["preview"] = resolve.BuildProfile{Name: "preview"}

	got := passingChecker(WithProfile("preview")).Evaluate(context.Background(), in)

	assert.Equal(t, finding.Pass, only(t, got, "build.preview").Severity)
	assert.Equal(t, finding.Fail, only(t, got, "build.preview.autoIncrement").Severity)
	assert.Equal(t, finding.Warn, only(t, got, "build.preview.env").Severity)
}

func TestEvaluate_EnvKeysSorted(t *testing.T) {
	in := project(t)
	in.Profiles["production"] = resolve.BuildProfile{
		Name:          "production",
		AutoIncrement: true,
		Env:           map[string]string{"ZED": "1", "ALPHA": "2", "MID": "3"},
	}

	f := only(t, passingChecker().Evaluate(context.Background(), in), "build.production.env")

	assert.Equal(t, "ALPHA, MID, ZED", f.Message)
}

func TestEvaluate_ProjectIDAndLockfile(t *testing.T) {
	in := project(t)
	in.Config.ProjectID = ""
	require.NoError(t, os.Remove(filepath.Join(in.Config.ProjectRoot, "package-lock.json")))

	got := passingChecker().Evaluate(context.Background(), in)

	assert.Equal(t, finding.Fail, only(t, got, "extra.eas.projectId").Severity)
	assert.Equal(t, finding.Fail, only(t, got, "lockfile").Severity)

	require.NoError(t, os.WriteFile(filepath.Join(in.Config.ProjectRoot, "bun.lock"), nil, 0644))
	got = passingChecker().Evaluate(context.Background(), in)
	lock := only(t, got, "lockfile")
	assert.Equal(t, finding.Pass, lock.Severity)
	assert.Equal(t, "bun.lock", lock.Message)

	got = passingChecker(WithLockfiles("deno.lock")).Evaluate(context.Background(), in)
	assert.Equal(t, finding.Fail, only(t, got, "lockfile").Severity)
}

func TestEvaluate_VCSNeverFails(t *testing.T) {
	tests := []struct {
		name    string
		vcs     probe.VCSProbe
		want    finding.Severity
		wantMsg string
	}{
		{name: "no probe", vcs: nil, want: finding.Warn, wantMsg: "not checked"},
		{name: "probe error", vcs: fakeVCS{err: errors.New("not a git repository")}, want: finding.Warn, wantMsg: "not a git repository"},
		{name: "dirty", vcs: fakeVCS{status: probe.VCSStatus{Changes: 3}}, want: finding.Warn, wantMsg: "3 uncommitted"},
		{name: "clean", vcs: fakeVCS{status: probe.VCSStatus{Clean: true}}, want: finding.Pass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithDimensionProbe(fakeDims{w: 1024, h: 1024}), WithVCSProbe(tt.vcs))

			f := only(t, c.Evaluate(context.Background(), project(t)), "vcs")

			assert.Equal(t, tt.want, f.Severity)
			assert.Contains(t, f.Message, tt.wantMsg)
		})
	}
}

func TestEvaluate_AdaptiveIconBackground(t *testing.T) {
	tests := []struct {
		name    string
		icon    *resolve.AdaptiveIcon
		want    []finding.Severity
		wantMsg string
	}{
		{name: "not declared", icon: nil, want: nil},
		{name: "neither", icon: &resolve.AdaptiveIcon{}, want: []finding.Severity{finding.Fail}, wantMsg: "backgroundColor or backgroundImage"},
		{name: "color", icon: &resolve.AdaptiveIcon{BackgroundColor: "#ffffff"}, want: []finding.Severity{finding.Pass}},
		{name: "both", icon: &resolve.AdaptiveIcon{BackgroundColor: "#ffffff", BackgroundImage: "./assets/icon.png"}, want: []finding.Severity{finding.Warn}},
		{name: "image", icon: &resolve.AdaptiveIcon{BackgroundImage: "./assets/icon.png"}, want: []finding.Severity{finding.Pass}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := project(t)
			in.Config.AdaptiveIcon = tt.icon

			got := bySubject(passingChecker().Evaluate(context.Background(), in), "android.adaptiveIcon.background")

			var sev []finding.Severity
			for _, f := range got {
				sev = append(sev, f.Severity)
			}
			assert.Equal(t, tt.want, sev)
			if tt.wantMsg != "" {
				assert.Contains(t, got[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluate_AdaptiveBackgroundImageIsInspected(t *testing.T) {
	in := project(t)
	in.Config.AdaptiveIcon = &resolve.AdaptiveIcon{BackgroundImage: "./assets/missing-bg.png"}

	got := passingChecker().Evaluate(context.Background(), in)

	bg := only(t, got, "android.adaptiveIcon.backgroundImage")
	assert.Equal(t, finding.Fail, bg.Severity)
	assert.Contains(t, bg.Message, "./assets/missing-bg.png")
}

func TestEvaluate_IconRules(t *testing.T) {
	t.Run("icon not declared", func(t *testing.T) {
		in := project(t)
		in.Config.Icon = ""

		f := only(t, passingChecker().Evaluate(context.Background(), in), "icon")

		assert.Equal(t, finding.Fail, f.Severity)
	})

	t.Run("wrong dimensions", func(t *testing.T) {
		c := New(WithDimensionProbe(fakeDims{w: 512, h: 512}), WithVCSProbe(fakeVCS{status: probe.VCSStatus{Clean: true}}))

		got := bySubject(c.Evaluate(context.Background(), project(t)), "icon")

		require.Len(t, got, 2)
		assert.Equal(t, finding.Pass, got[0].Severity)
		assert.Equal(t, finding.Fail, got[1].Severity)
		assert.Contains(t, got[1].Message, "512x512, expected 1024x1024")
	})

	t.Run("optional assets only when declared", func(t *testing.T) {
		got := passingChecker().Evaluate(context.Background(), project(t))

		assert.Empty(t, bySubject(got, "splash.image"))
		assert.Empty(t, bySubject(got, "android.adaptiveIcon.foregroundImage"))
		assert.Empty(t, bySubject(got, "ios.icon"))
	})

	t.Run("declared optional assets", func(t *testing.T) {
		in := project(t)
		in.Config.SplashImage = "./assets/splash.png"
		in.Config.IOSIcon = "./assets/icon.png"
		in.Config.AdaptiveIcon = &resolve.AdaptiveIcon{ForegroundImage: "./assets/icon.png", BackgroundColor: "#000000"}

		got := passingChecker().Evaluate(context.Background(), in)

		splash := bySubject(got, "splash.image")
		require.Len(t, splash, 1)
		assert.Equal(t, finding.Fail, splash[0].Severity)
		assert.Len(t, bySubject(got, "ios.icon"), 2)
		assert.Len(t, bySubject(got, "android.adaptiveIcon.foregroundImage"), 2)
	})
}

func TestEvaluate_ProbeUnavailable(t *testing.T) {
	// Given: no dimension probe and several declared assets, one missing
	in := project(t)
	in.Config.IOSIcon = "./assets/icon.png"
	in.Config.AdaptiveIcon = &resolve.AdaptiveIcon{ForegroundImage: "./assets/fg.png", BackgroundColor: "#fff"}
	c := New(WithVCSProbe(fakeVCS{status: probe.VCSStatus{Clean: true}}))

	// When: evaluating
	got := c.Evaluate(context.Background(), in)

	// Then: one disclosure WARN, existence still checked, no dimension findings
	disclosure := bySubject(got, "assets")
	require.Len(t, disclosure, 1)
	assert.Equal(t, finding.Warn, disclosure[0].Severity)

	assert.Equal(t, finding.Pass, only(t, got, "icon").Severity)
	assert.Equal(t, finding.Pass, only(t, got, "ios.icon").Severity)
	fg := only(t, got, "android.adaptiveIcon.foregroundImage")
	assert.Equal(t, finding.Fail, fg.Severity)
	assert.Contains(t, fg.Message, "not found")

	for _, f := range got {
		assert.NotContains(t, f.Message, "expected 1024x1024")
	}
}

func TestEvaluate_DisclosureOrderedBeforeAssets(t *testing.T) {
	got := New().Evaluate(context.Background(), project(t))

	idx := func(subject string) int {
		for i, f := range got {
			if f.Subject == subject {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("vcs"), idx("assets"))
	assert.Less(t, idx("assets"), idx("icon"))
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := project(t)
	in.Config.Scheme = ""
	in.Profiles["production"] = resolve.BuildProfile{
		Name: "production",
		Env:  map[string]string{"B": "1", "A": "2", "C": "3"},
	}
	c := passingChecker()

	first := c.Evaluate(context.Background(), in)
	second := c.Evaluate(context.Background(), in)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("evaluation not deterministic (-first +second):\n%s", diff)
	}
}

func TestEvaluate_Monotonicity(t *testing.T) {
	mutations := []func(*Input){
		func(*Input) {},
		func(in *Input) { in.Config.Scheme = "" },
		func(in *Input) { in.Config.RuntimeVersion = nil },
		func(in *Input) { in.Config.NewArchEnabled = boolPtr(false) },
		func(in *Input) { in.Config.TargetSDK = intPtr(33) },
		func(in *Input) { in.Config.AndroidPackage = "com.sample.app" },
		func(in *Input) { in.Profiles = resolve.BuildProfiles{} },
		func(in *Input) { in.Config.Icon = "./assets/nope.png" },
		func(in *Input) { in.Config.AdaptiveIcon = &resolve.AdaptiveIcon{} },
	}

	for i, mutate := range mutations {
		in := project(t)
		mutate(&in)

		got := passingChecker().Evaluate(context.Background(), in)

		assert.Equal(t, finding.HasFailure(got), finding.Verdict(got) == finding.Fail, "mutation %d", i)
	}
}

func TestEvaluate_NilConfig(t *testing.T) {
	got := New().Evaluate(context.Background(), Input{})

	assert.NotEmpty(t, got)
	assert.Equal(t, finding.Fail, finding.Verdict(got))
}
