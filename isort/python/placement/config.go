package placement

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"aspect.build/isort/isort/settings"
)

// Config holds the isort options that affect where an import is placed.
type Config struct {
	// Directories searched for first party modules.
	SrcPaths []string

	// Module patterns forced into a section. "*" and "?" are wildcards.
	KnownFirstParty []string
	KnownThirdParty []string

	// PythonVersion selects the standard library. Nil means any Python 3.
	PythonVersion *semver.Version
}

func New(srcPaths ...string) *Config {
	return &Config{
		SrcPaths: append([]string(nil), srcPaths...),
	}
}

// FromSettings builds a Config from a loaded isort settings file.
func FromSettings(s *settings.Settings) (*Config, error) {
	v, err := ParsePythonVersion(s.PyVersion)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return &Config{
		SrcPaths:        append([]string(nil), s.SrcPaths...),
		KnownFirstParty: append([]string(nil), s.KnownFirstParty...),
		KnownThirdParty: append([]string(nil), s.KnownThirdParty...),
		PythonVersion:   v,
	}, nil
}

// NewChild returns a copy of the config with extra src paths appended, the
// way the runner merges a target's import roots into the settings file.
func (c *Config) NewChild(srcPaths ...string) *Config {
	cCopy := *c
	cCopy.SrcPaths = append(append([]string(nil), c.SrcPaths...), srcPaths...)
	cCopy.KnownFirstParty = append([]string(nil), c.KnownFirstParty...)
	cCopy.KnownThirdParty = append([]string(nil), c.KnownThirdParty...)
	return &cCopy
}

// ParsePythonVersion parses isort's py_version option: "3", "311", "3.11",
// "py311", "auto" or "all". The result is nil when every Python 3 release
// should be considered.
func ParsePythonVersion(s string) (*semver.Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "py")
	switch s {
	case "", "3", "auto", "all":
		return nil, nil
	}

	major, minor, dotted := strings.Cut(s, ".")
	if !dotted {
		if len(s) < 2 {
			return nil, fmt.Errorf("invalid py_version %q", s)
		}
		major, minor = s[:1], s[1:]
	}
	if major != "3" {
		return nil, fmt.Errorf("unsupported py_version %q: only python 3 is supported", s)
	}
	v, err := semver.NewVersion(major + "." + minor)
	if err != nil {
		return nil, fmt.Errorf("invalid py_version %q: %w", s, err)
	}
	return v, nil
}
