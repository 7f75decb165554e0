package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Aman-CERP/shipcheck/configs"
	scerrors "github.com/Aman-CERP/shipcheck/internal/errors"
)

// BuildProfile is one named entry of the build-profile document after
// "extends" inheritance has been applied.
type BuildProfile struct {
	Name string `json:"name"`
	// AutoIncrement keeps the decoded value as-is (nil when unset) so rules
	// can require strictly boolean true.
	AutoIncrement any               `json:"auto_increment,omitempty"`
	Env           map[string]string `json:"env"`
	Extends       string            `json:"extends,omitempty"`
}

// EnvKeys returns the declared environment variable names, sorted.
func (p BuildProfile) EnvKeys() []string {
	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildProfiles maps profile names to their records.
type BuildProfiles map[string]BuildProfile

// Names returns the profile names, sorted.
func (p BuildProfiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require fails with ProfileMissing unless name is defined.
func (p BuildProfiles) Require(path, name string) error {
	if _, ok := p[name]; ok {
		return nil
	}
	err := scerrors.ProfileMissing(path, name, nil)
	if names := p.Names(); len(names) > 0 {
		err.WithDetail("defined", strings.Join(names, ", "))
	}
	return err
}

// rawProfile mirrors a build entry before inheritance.
type rawProfile struct {
	Extends       string            `json:"extends"`
	AutoIncrement any               `json:"autoIncrement"`
	Env           map[string]string `json:"env"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// profileSchema compiles the embedded build-profile schema once.
func profileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(configs.BuildProfileSchemaURL, strings.NewReader(configs.BuildProfileSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(configs.BuildProfileSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// LoadProfiles reads the build-profile document at path. A missing file is
// ProfileMissing; a document that does not parse, fails the schema, or has
// a broken "extends" chain is ProfileMalformed.
func LoadProfiles(path string) (BuildProfiles, error) {
	doc, err := readDocument(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, scerrors.ProfileMissing(path, "", err)
		}
		return nil, scerrors.ProfileMalformed(path, err)
	}

	sch, err := profileSchema()
	if err != nil {
		return nil, scerrors.InternalError("build profile schema unavailable", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, scerrors.ProfileMalformed(path, schemaViolation(err))
	}

	data, err := json.Marshal(doc["build"])
	if err != nil {
		return nil, scerrors.ProfileMalformed(path, err)
	}
	var raw map[string]rawProfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, scerrors.ProfileMalformed(path, err)
	}

	profiles := make(BuildProfiles, len(raw))
	for name := range raw {
		p, err := flatten(raw, name, nil)
		if err != nil {
			return nil, scerrors.ProfileMalformed(path, err)
		}
		profiles[name] = p
	}
	return profiles, nil
}

// flatten applies the "extends" chain of name: parents first, children
// override env keys and autoIncrement.
func flatten(raw map[string]rawProfile, name string, chain []string) (BuildProfile, error) {
	for _, seen := range chain {
		if seen == name {
			return BuildProfile{}, fmt.Errorf("profile %q extends itself via %s", name, strings.Join(append(chain, name), " -> "))
		}
	}
	r, ok := raw[name]
	if !ok {
		return BuildProfile{}, fmt.Errorf("profile %q extends unknown profile %q", chain[len(chain)-1], name)
	}

	out := BuildProfile{Name: name, Env: map[string]string{}, Extends: r.Extends}
	if r.Extends != "" {
		parent, err := flatten(raw, r.Extends, append(chain, name))
		if err != nil {
			return BuildProfile{}, err
		}
		out.AutoIncrement = parent.AutoIncrement
		for k, v := range parent.Env {
			out.Env[k] = v
		}
	}
	if r.AutoIncrement != nil {
		out.AutoIncrement = r.AutoIncrement
	}
	for k, v := range r.Env {
		out.Env[k] = v
	}
	return out, nil
}

// schemaViolation condenses a jsonschema error to its most specific cause.
func schemaViolation(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Errorf("%s: %s", location, leaf.Message)
}
