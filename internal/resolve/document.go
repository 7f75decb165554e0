package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseDocument decodes JSON or YAML bytes into a generic object.
// Files with a .json extension are decoded strictly as JSON; anything else
// goes through yaml.v3, which also accepts JSON.
func parseDocument(path string, data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		obj, ok := normalizeYAML(raw).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("top level must be a mapping")
		}
		doc = obj
	}
	if doc == nil {
		return nil, fmt.Errorf("top level must be an object")
	}
	return doc, nil
}

// normalizeYAML converts yaml.v3 values into encoding/json shaped values so
// both decoders feed identical structures downstream.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}

// readDocument reads and parses a document, distinguishing a missing file
// (os.ErrNotExist in the chain) from a parse error.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(path, data)
	if err != nil {
		return nil, &parseError{err: err}
	}
	return doc, nil
}

// parseError marks a document that exists but does not decode.
type parseError struct {
	err error
}

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }
