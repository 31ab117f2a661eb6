// Package environ loads the environment variables consulted by the isort runner.
package environ

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Variables set by Bazel for tests and runfiles, and by the runner itself.
const (
	BazelTest       = "BAZEL_TEST"
	TestWorkspace   = "TEST_WORKSPACE"
	TestTmpDir      = "TEST_TMPDIR"
	RunfilesDir     = "RUNFILES_DIR"
	VenvRunfilesDir = "PY_VENV_RUNFILES_DIR"
	RunnerArgsFile  = "PY_ISORT_RUNNER_ARGS_FILE"
	RunnerMain      = "PY_ISORT_MAIN"
	RunnerLogLevel  = "ISORT_RUNNER_LOG_LEVEL"
)

const (
	defaultLogLevel = "warn"

	// Variable names never contain this, so every key stays flat.
	keyDelim = "::"
)

var known = map[string]bool{
	BazelTest:       true,
	TestWorkspace:   true,
	TestTmpDir:      true,
	RunfilesDir:     true,
	VenvRunfilesDir: true,
	RunnerArgsFile:  true,
	RunnerMain:      true,
	RunnerLogLevel:  true,
}

// Env is a snapshot of the variables the runner cares about.
type Env struct {
	k *koanf.Koanf
}

// Load takes a snapshot of the current process environment.
func Load() (*Env, error) {
	k := koanf.New(keyDelim)

	if err := k.Load(confmap.Provider(map[string]interface{}{
		RunnerLogLevel: defaultLogLevel,
	}, keyDelim), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", keyDelim, func(s string) string {
		if known[s] {
			return s
		}
		// Dropped.
		return ""
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	return &Env{k: k}, nil
}

// FromMap builds an Env from explicit values. Variables absent from vars are unset.
func FromMap(vars map[string]string) (*Env, error) {
	k := koanf.New(keyDelim)
	m := map[string]interface{}{RunnerLogLevel: defaultLogLevel}
	for name, value := range vars {
		if known[name] {
			m[name] = value
		}
	}
	if err := k.Load(confmap.Provider(m, keyDelim), nil); err != nil {
		return nil, fmt.Errorf("failed to load env map: %w", err)
	}
	return &Env{k: k}, nil
}

// IsSet reports whether the variable is present, even when empty.
func (e *Env) IsSet(name string) bool {
	return e.k.Exists(name)
}

// Get returns the value of name or "" when unset.
func (e *Env) Get(name string) string {
	return e.k.String(name)
}

// InBazelTest reports whether the process runs under `bazel test`.
func (e *Env) InBazelTest() bool {
	return e.IsSet(BazelTest)
}

// RunfilesRoot returns the runfiles directory used to resolve import paths.
// PY_VENV_RUNFILES_DIR takes precedence over RUNFILES_DIR.
func (e *Env) RunfilesRoot() (string, bool) {
	for _, name := range []string{VenvRunfilesDir, RunfilesDir} {
		if e.IsSet(name) {
			return e.Get(name), true
		}
	}
	return "", false
}

// SanitizePrefixes returns the sandbox directories that must not leak into
// relayed tool output.
func (e *Env) SanitizePrefixes() []string {
	var out []string
	for _, name := range []string{RunfilesDir, VenvRunfilesDir} {
		if v := e.Get(name); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Environ returns the full environment for a child process, with overrides
// applied on top of the current process environment.
func Environ(overrides map[string]string) []string {
	var out []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[name]; ok {
			continue
		}
		out = append(out, kv)
	}
	for name, value := range overrides {
		out = append(out, name+"="+value)
	}
	return out
}
