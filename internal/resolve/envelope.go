package resolve

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// envelope is one known top-level shape of a configuration document.
type envelope struct {
	name   string
	unwrap func(doc map[string]any) (map[string]any, bool)
}

// wrappedUnder matches documents whose payload sits under key.
func wrappedUnder(key string) func(map[string]any) (map[string]any, bool) {
	return func(doc map[string]any) (map[string]any, bool) {
		inner, ok := doc[key].(map[string]any)
		return inner, ok
	}
}

// unwrapped matches a bare payload carrying at least one app-level field.
func unwrapped(doc map[string]any) (map[string]any, bool) {
	for _, key := range []string{"name", "slug", "android", "ios"} {
		if _, ok := doc[key]; ok {
			return doc, true
		}
	}
	return nil, false
}

// envelopes are tried in order; the first match wins.
var envelopes = []envelope{
	{name: "exp", unwrap: wrappedUnder("exp")},
	{name: "expo", unwrap: wrappedUnder("expo")},
	{name: "unwrapped", unwrap: unwrapped},
}

// normalize selects the payload of doc and reports which envelope matched.
func normalize(doc map[string]any) (map[string]any, string, error) {
	for _, e := range envelopes {
		if payload, ok := e.unwrap(doc); ok {
			return payload, e.name, nil
		}
	}
	return nil, "", fmt.Errorf("unrecognized envelope: expected an \"exp\" or \"expo\" object or an unwrapped app config")
}

// fields walks a normalized payload. A value of the wrong type never aborts
// resolution; it is recorded in invalid and the field is left unset, so the
// rule reading it reports the value instead.
type fields struct {
	invalid map[string]string
}

func (f *fields) reject(path string, v any) {
	if f.invalid == nil {
		f.invalid = make(map[string]string)
	}
	f.invalid[path] = describe(v)
}

// str reads a string field. Absent and null read as "".
func (f *fields) str(m map[string]any, key, path string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.reject(path, v)
		return ""
	}
	return s
}

// object reads a nested object. Absent and null read as nil.
func (f *fields) object(m map[string]any, key, path string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		f.reject(path, v)
		return nil
	}
	return obj
}

// describe renders a JSON value with its type, e.g. `object {"path":"a.png"}`.
func describe(v any) string {
	kind := "value"
	switch v.(type) {
	case string:
		kind = "string"
	case float64:
		kind = "number"
	case bool:
		kind = "boolean"
	case map[string]any:
		kind = "object"
	case []any:
		kind = "array"
	}
	text, err := json.Marshal(v)
	if err != nil {
		return kind + " " + fmt.Sprint(v)
	}
	return kind + " " + string(text)
}

// decodePayload maps a normalized payload onto ResolvedConfig fields.
func decodePayload(payload map[string]any) *ResolvedConfig {
	f := &fields{}
	cfg := &ResolvedConfig{
		Icon:           f.str(payload, "icon", "icon"),
		Scheme:         decodeScheme(f, payload["scheme"]),
		RuntimeVersion: decodeRuntimeVersion(payload["runtimeVersion"]),
	}

	switch v := payload["newArchEnabled"].(type) {
	case nil:
	case bool:
		cfg.NewArchEnabled = &v
	default:
		f.reject("newArchEnabled", v)
	}

	if splash := f.object(payload, "splash", "splash"); splash != nil {
		cfg.SplashImage = f.str(splash, "image", "splash.image")
	}

	var targetSDK any
	if android := f.object(payload, "android", "android"); android != nil {
		cfg.AndroidPackage = f.str(android, "package", "android.package")
		targetSDK = android["targetSdkVersion"]
		if ai := f.object(android, "adaptiveIcon", "android.adaptiveIcon"); ai != nil {
			cfg.AdaptiveIcon = &AdaptiveIcon{
				ForegroundImage: f.str(ai, "foregroundImage", "android.adaptiveIcon.foregroundImage"),
				BackgroundImage: f.str(ai, "backgroundImage", "android.adaptiveIcon.backgroundImage"),
				BackgroundColor: f.str(ai, "backgroundColor", "android.adaptiveIcon.backgroundColor"),
			}
		}
	}
	if ios := f.object(payload, "ios", "ios"); ios != nil {
		cfg.IOSBundleID = f.str(ios, "bundleIdentifier", "ios.bundleIdentifier")
		cfg.IOSIcon = decodeIOSIcon(f, ios["icon"])
	}
	if extra := f.object(payload, "extra", "extra"); extra != nil {
		if eas := f.object(extra, "eas", "extra.eas"); eas != nil {
			cfg.ProjectID = f.str(eas, "projectId", "extra.eas.projectId")
		}
	}

	// Plugin options fill fields the top-level document leaves unset.
	plugins, _ := payload["plugins"].([]any)
	for _, p := range plugins {
		name, opts := pluginEntry(p)
		switch name {
		case "expo-build-properties":
			if targetSDK == nil {
				if android, ok := opts["android"].(map[string]any); ok {
					targetSDK = android["targetSdkVersion"]
				}
			}
		case "expo-splash-screen":
			if cfg.SplashImage == "" {
				if img, ok := opts["image"].(string); ok {
					cfg.SplashImage = img
				}
			}
		}
	}

	cfg.TargetSDK, cfg.TargetSDKRaw = decodeTargetSDK(targetSDK)
	cfg.Invalid = f.invalid
	return cfg
}

// decodeScheme accepts a string or a list of strings (first wins).
func decodeScheme(f *fields, v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok && str != "" {
				return str
			}
		}
		return ""
	default:
		f.reject("scheme", v)
		return ""
	}
}

// decodeRuntimeVersion accepts a version string or a {policy} object. Any
// other shape is kept verbatim in Raw.
func decodeRuntimeVersion(v any) *RuntimeVersion {
	switch rv := v.(type) {
	case nil:
		return nil
	case string:
		return &RuntimeVersion{Value: rv}
	case float64:
		return &RuntimeVersion{Value: strconv.FormatFloat(rv, 'f', -1, 64)}
	case map[string]any:
		if policy, ok := rv["policy"].(string); ok && policy != "" {
			return &RuntimeVersion{Policy: policy}
		}
	}
	return &RuntimeVersion{Raw: describe(v)}
}

// decodeIOSIcon accepts a path or an appearance map ({light, dark, tinted}).
func decodeIOSIcon(f *fields, v any) string {
	switch icon := v.(type) {
	case nil:
	case string:
		return icon
	case map[string]any:
		for _, key := range []string{"light", "any", "dark"} {
			if p, ok := icon[key].(string); ok && p != "" {
				return p
			}
		}
	default:
		f.reject("ios.icon", v)
	}
	return ""
}

// decodeTargetSDK returns the numeric SDK level, or the raw text of a
// non-numeric value.
func decodeTargetSDK(v any) (*int, string) {
	switch n := v.(type) {
	case nil:
		return nil, ""
	case float64:
		if n != math.Trunc(n) {
			return nil, strconv.FormatFloat(n, 'f', -1, 64)
		}
		level := int(n)
		return &level, ""
	case string:
		level, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, n
		}
		return &level, ""
	default:
		return nil, fmt.Sprint(v)
	}
}

// pluginEntry splits a plugin declaration ("name" or ["name", {opts}]).
func pluginEntry(p any) (string, map[string]any) {
	switch entry := p.(type) {
	case string:
		return entry, nil
	case []any:
		if len(entry) == 0 {
			return "", nil
		}
		name, _ := entry[0].(string)
		var opts map[string]any
		if len(entry) > 1 {
			opts, _ = entry[1].(map[string]any)
		}
		return name, opts
	}
	return "", nil
}
