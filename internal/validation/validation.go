// Package validation runs end-to-end scenarios through the MCP validate tool.
// Each scenario lays out a small Expo project in a scratch directory, runs
// one check, and compares the verdict and selected findings against what the
// scenario expects.
//
// Scenarios are data-driven, loaded from testdata/scenarios.yaml, so new
// regressions can be captured without touching Go code.
package validation

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/shipcheck/internal/mcp"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
)

// FileSpec is one file of a scenario project. Exactly one of Content or PNG
// is used; PNG is a "WIDTHxHEIGHT" size for a generated blank image.
type FileSpec struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
	PNG     string `yaml:"png"`
}

// Expectation matches a finding by severity and subject, and optionally by a
// message substring.
type Expectation struct {
	Severity string `yaml:"severity"`
	Subject  string `yaml:"subject"`
	Contains string `yaml:"contains"`
}

// Scenario describes one project and the outcome it should produce.
// ErrorCode is set for scenarios that abort on a fatal precondition; NoBase
// skips the shared base files.
type Scenario struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	NoBase    bool          `yaml:"no_base"`
	Files     []FileSpec    `yaml:"files"`
	Remove    []string      `yaml:"remove"`
	Profile   string        `yaml:"profile"`
	Verdict   string        `yaml:"verdict"`
	ErrorCode string        `yaml:"error_code"`
	Expect    []Expectation `yaml:"expect"`
	Notes     string        `yaml:"notes"`
}

// Corpus holds the base project and every scenario layered on top of it.
type Corpus struct {
	Base      []FileSpec `yaml:"base"`
	Scenarios []Scenario `yaml:"scenarios"`
}

var (
	corpusOnce sync.Once
	corpusData *Corpus
	corpusErr  error
)

// LoadCorpus parses a scenario file.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file %s: %w", path, err)
	}
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios YAML: %w", err)
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		if sc.ID == "" {
			return nil, fmt.Errorf("scenario %q has no id", sc.Name)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("duplicate scenario id %s", sc.ID)
		}
		seen[sc.ID] = true
		if sc.Verdict == "" && sc.ErrorCode == "" {
			return nil, fmt.Errorf("scenario %s expects neither a verdict nor an error code", sc.ID)
		}
	}
	return &c, nil
}

// DefaultCorpus loads testdata/scenarios.yaml next to this file. The result
// is cached after the first call.
func DefaultCorpus() (*Corpus, error) {
	corpusOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			corpusErr = fmt.Errorf("failed to get current file path")
			return
		}
		corpusData, corpusErr = LoadCorpus(filepath.Join(filepath.Dir(filename), "testdata", "scenarios.yaml"))
	})
	return corpusData, corpusErr
}

// Materialize writes the project for sc into dir: the base files unless the
// scenario opts out, then the scenario's own files, then removals.
func (c *Corpus) Materialize(dir string, sc Scenario) error {
	var files []FileSpec
	if !sc.NoBase {
		files = append(files, c.Base...)
	}
	files = append(files, sc.Files...)

	for _, f := range files {
		if err := writeFileSpec(dir, f); err != nil {
			return fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
	}
	for _, rel := range sc.Remove {
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("scenario %s: failed to remove %s: %w", sc.ID, rel, err)
		}
	}
	return nil
}

func writeFileSpec(dir string, f FileSpec) error {
	path := filepath.Join(dir, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
	}
	if f.PNG == "" {
		return os.WriteFile(path, []byte(f.Content), 0o644)
	}

	var w, h int
	if _, err := fmt.Sscanf(f.PNG, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return fmt.Errorf("invalid png size %q for %s", f.PNG, f.Path)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.Path, err)
	}
	if err := png.Encode(out, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to encode %s: %w", f.Path, err)
	}
	return out.Close()
}

// Result captures the outcome of a single scenario.
type Result struct {
	Scenario Scenario           `json:"scenario"`
	Passed   bool               `json:"passed"`
	Duration time.Duration      `json:"duration_ms"`
	Output   mcp.ValidateOutput `json:"output"`
	Problems []string           `json:"problems,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Validator runs scenarios against an in-process MCP server.
type Validator struct {
	corpus *Corpus
	server *mcp.Server
}

// NewValidator builds the server over a runner configured with opts.
func NewValidator(corpus *Corpus, opts ...shipcheck.Option) (*Validator, error) {
	runner, err := shipcheck.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	server, err := mcp.NewServer(runner)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	return &Validator{corpus: corpus, server: server}, nil
}

// Run materializes sc under dir and checks the validate tool's output.
func (v *Validator) Run(ctx context.Context, dir string, sc Scenario) Result {
	res := Result{Scenario: sc}
	if err := v.corpus.Materialize(dir, sc); err != nil {
		res.Error = err.Error()
		return res
	}

	start := time.Now()
	out, err := v.server.Validate(ctx, mcp.ValidateInput{Dir: dir, Profile: sc.Profile})
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = out
	res.Problems = Compare(sc, out)
	res.Passed = len(res.Problems) == 0
	return res
}

// RunAll runs every scenario, each in its own directory under root.
func (v *Validator) RunAll(ctx context.Context, root string) []Result {
	results := make([]Result, 0, len(v.corpus.Scenarios))
	for _, sc := range v.corpus.Scenarios {
		dir := filepath.Join(root, sc.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			results = append(results, Result{Scenario: sc, Error: err.Error()})
			continue
		}
		results = append(results, v.Run(ctx, dir, sc))
	}
	return results
}

// Compare lists every way out differs from what sc expects.
func Compare(sc Scenario, out mcp.ValidateOutput) []string {
	var problems []string

	if sc.ErrorCode != "" {
		switch {
		case out.Error == nil:
			problems = append(problems, fmt.Sprintf("expected fatal %s, got verdict %s", sc.ErrorCode, out.Verdict))
		case out.Error.Code != sc.ErrorCode:
			problems = append(problems, fmt.Sprintf("expected fatal %s, got %s", sc.ErrorCode, out.Error.Code))
		}
		return problems
	}
	if out.Error != nil {
		return append(problems, fmt.Sprintf("unexpected fatal %s: %s", out.Error.Code, out.Error.Message))
	}

	if !strings.EqualFold(out.Verdict, sc.Verdict) {
		problems = append(problems, fmt.Sprintf("expected verdict %s, got %s", strings.ToUpper(sc.Verdict), out.Verdict))
	}
	wantExit := 0
	if strings.EqualFold(sc.Verdict, "FAIL") {
		wantExit = 1
	}
	if out.ExitCode != wantExit {
		problems = append(problems, fmt.Sprintf("expected exit code %d, got %d", wantExit, out.ExitCode))
	}

	for _, e := range sc.Expect {
		if !matchesAny(e, out.Findings) {
			problems = append(problems, fmt.Sprintf("missing finding [%s] %s containing %q", strings.ToUpper(e.Severity), e.Subject, e.Contains))
		}
	}
	return problems
}

func matchesAny(e Expectation, findings []mcp.FindingOutput) bool {
	for _, f := range findings {
		if !strings.EqualFold(f.Severity, e.Severity) || f.Subject != e.Subject {
			continue
		}
		if e.Contains == "" || strings.Contains(f.Message, e.Contains) {
			return true
		}
	}
	return false
}

// Summary counts passing scenarios.
func Summary(results []Result) (passed, total int) {
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(results)
}
