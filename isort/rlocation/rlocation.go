// Package rlocation resolves runfile paths when the runner executes inside a
// `bazel test` sandbox. Outside of tests paths are used as given.
package rlocation

import (
	"errors"
	"fmt"
	"os"

	"github.com/bazelbuild/rules_go/go/runfiles"

	"aspect.build/isort/internal/logger"
	"aspect.build/isort/isort/environ"
)

var (
	ErrRunfilesUnavailable = errors.New("failed to locate runfiles")
	ErrRunfileNotFound     = errors.New("failed to find runfile")
	ErrRunfileMissing      = errors.New("runfile does not exist")
)

// Locator is the subset of [runfiles.Runfiles] used by the runner.
type Locator interface {
	Rlocation(path string) (string, error)
}

var _ Locator = (*runfiles.Runfiles)(nil)

// NewLocator creates a runfiles handle for the current process. Lookups are
// performed from the point of view of TEST_WORKSPACE when it is set.
func NewLocator(e *environ.Env, opts ...runfiles.Option) (Locator, error) {
	r, err := runfiles.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunfilesUnavailable, err)
	}
	if ws := e.Get(environ.TestWorkspace); ws != "" {
		r = r.WithSourceRepo(ws)
	}
	return r, nil
}

// Rlocation looks up a runfile and ensures the file exists.
func Rlocation(l Locator, rlocationpath string) (string, error) {
	p, err := l.Rlocation(rlocationpath)
	if err != nil || p == "" {
		return "", fmt.Errorf("%w: %s", ErrRunfileNotFound, rlocationpath)
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: (%s) %s", ErrRunfileMissing, rlocationpath, p)
	}
	logger.Tracef("Rlocation(%s): %s", rlocationpath, p)
	return p, nil
}

// Resolver turns command line arguments into paths, going through runfiles
// only when running under `bazel test`. The runfiles handle is created lazily
// and shared by every argument.
type Resolver struct {
	env        *environ.Env
	newLocator func(*environ.Env) (Locator, error)
	locator    Locator
}

// NewResolver returns a Resolver backed by the process runfiles.
func NewResolver(e *environ.Env) *Resolver {
	return &Resolver{
		env: e,
		newLocator: func(e *environ.Env) (Locator, error) {
			return NewLocator(e)
		},
	}
}

// NewResolverWithLocator returns a Resolver that uses l for every lookup.
func NewResolverWithLocator(e *environ.Env, l Locator) *Resolver {
	return &Resolver{env: e, locator: l}
}

// Locator returns the runfiles handle, creating it on first use.
func (r *Resolver) Locator() (Locator, error) {
	if r.locator != nil {
		return r.locator, nil
	}
	l, err := r.newLocator(r.env)
	if err != nil {
		return nil, err
	}
	r.locator = l
	return l, nil
}

// MaybeRunfile parses an argument into a path while resolving runfiles.
// Not all contexts the runner executes in use runfiles; in those the
// argument is returned unchanged.
func (r *Resolver) MaybeRunfile(arg string) (string, error) {
	if !r.env.InBazelTest() {
		return arg, nil
	}
	l, err := r.Locator()
	if err != nil {
		return "", err
	}
	return Rlocation(l, arg)
}
