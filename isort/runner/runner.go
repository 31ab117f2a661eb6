// Package runner is the process wrapper around isort used by Bazel actions
// and tests.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"aspect.build/isort/internal/logger"
	"aspect.build/isort/isort/environ"
	"aspect.build/isort/isort/settings"
)

// TempDirPrefix prefixes the directory holding the merged settings file.
const TempDirPrefix = "bazel_rules_isort-"

var (
	ErrRunfilesDirUnknown  = errors.New("unable to locate runfiles directory")
	ErrIsortNotFound       = errors.New("unable to find the isort executable")
	ErrRecursiveInvocation = errors.New("isort runner invoked itself as isort")
)

// ToolFailure is returned when isort exits with a non-zero code. Output has
// sandbox paths redacted and is meant to be shown to the user as is.
type ToolFailure struct {
	ExitCode int
	Output   string
}

func (f *ToolFailure) Error() string {
	return fmt.Sprintf("isort exited with code %d", f.ExitCode)
}

// Runner runs isort for one set of parsed arguments.
type Runner struct {
	env *environ.Env

	// The path of the runner binary, exported to isort as PY_ISORT_MAIN.
	self string
}

func New(env *environ.Env, self string) *Runner {
	return &Runner{env: env, self: self}
}

// CheckRecursion fails when PY_ISORT_MAIN names this binary, which means the
// runner was started by another runner in place of isort.
func (r *Runner) CheckRecursion() error {
	mainPath := r.env.Get(environ.RunnerMain)
	if mainPath == "" || r.self == "" {
		return nil
	}
	if filepath.Clean(mainPath) == filepath.Clean(r.self) {
		return fmt.Errorf("%w: %s; check the --isort argument", ErrRecursiveInvocation, r.self)
	}
	return nil
}

// LocateFirstPartySrcPaths resolves the runfiles relative import paths of a
// target into absolute first party source roots.
func LocateFirstPartySrcPaths(e *environ.Env, imports []string) ([]string, error) {
	runfilesDir, ok := e.RunfilesRoot()
	if !ok {
		return nil, ErrRunfilesDirUnknown
	}

	paths := make([]string, 0, len(imports))
	for _, imp := range imports {
		if filepath.IsAbs(imp) {
			paths = append(paths, imp)
			continue
		}
		paths = append(paths, filepath.Join(runfilesDir, imp))
	}
	return paths, nil
}

func (r *Runner) isortPath(a *Args) (string, error) {
	if a.Isort != "" {
		return a.Isort, nil
	}
	p, err := exec.LookPath("isort")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIsortNotFound, err)
	}
	return p, nil
}

// Run merges the first party roots into the settings file, runs isort on all
// requested sources, and writes the marker on success.
func (r *Runner) Run(ctx context.Context, a *Args) error {
	srcPaths, err := LocateFirstPartySrcPaths(r.env, a.Imports)
	if err != nil {
		return err
	}

	isort, err := r.isortPath(a)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp(r.env.Get(environ.TestTmpDir), TempDirPrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	// Only clean up outside of tests, where the test runner owns TEST_TMPDIR.
	if !r.env.IsSet(environ.TestTmpDir) {
		defer os.RemoveAll(tempDir)
	}

	settingsPath := filepath.Join(tempDir, filepath.Base(a.SettingsPath))
	if err := settings.GenerateWithSrcPaths(a.SettingsPath, settingsPath, srcPaths); err != nil {
		return err
	}

	isortArgs := []string{"--settings-path", settingsPath}
	isortArgs = append(isortArgs, a.IsortArgs...)
	isortArgs = append(isortArgs, a.Sources...)

	logger.Debugf("running %s %s", isort, strings.Join(isortArgs, " "))

	childEnv := environ.Environ(map[string]string{environ.RunnerMain: r.self})
	output, exitCode, err := execute(ctx, childEnv, isort, isortArgs...)
	if err != nil {
		return err
	}

	if exitCode != 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		return &ToolFailure{
			ExitCode: exitCode,
			Output:   Sanitize(string(output), r.env.SanitizePrefixes(), cwd),
		}
	}

	// Satisfy the action by writing a consistent output file.
	if a.Marker != "" {
		if err := os.WriteFile(a.Marker, nil, 0644); err != nil {
			return fmt.Errorf("failed to write marker %s: %w", a.Marker, err)
		}
	}
	return nil
}

// execute runs name with stdout and stderr combined. A non-zero exit is not
// an error; only a failure to start or wait for the process is. A process
// killed by a signal reports 128+signal, like a shell does.
func execute(ctx context.Context, env []string, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitStatus(exitErr), nil
	}
	if err != nil {
		return out, -1, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, 0, nil
}

func exitStatus(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}
