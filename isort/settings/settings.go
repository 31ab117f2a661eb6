// Package settings reads isort settings files and writes copies of them with
// first party source roots merged into `src_paths`.
package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/go-ini/ini"

	"aspect.build/isort/internal/logger"
)

const (
	SrcPathsKey        = "src_paths"
	KnownFirstPartyKey = "known_first_party"
	KnownThirdPartyKey = "known_third_party"
	SkipGlobKey        = "skip_glob"
	PyVersionKey       = "py_version"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported isort settings format")
	ErrUnexpectedFile    = errors.New("unexpected isort settings file")
)

// format maps a settings file name suffix to the section isort reads from it.
type format struct {
	suffix  string
	section string
}

// Order matters: ".isort.cfg" must match before ".cfg".
var formats = []format{
	{".isort.cfg", "settings"},
	{".cfg", "isort"},
	{".ini", "isort"},
	{"pyproject.toml", "tool.isort"},
}

// SectionFor returns the section isort reads from the settings file at path.
func SectionFor(path string) (string, error) {
	name := filepath.Base(path)
	for _, f := range formats {
		if !strings.HasSuffix(name, f.suffix) {
			continue
		}
		if strings.HasSuffix(f.suffix, ".toml") {
			return "", fmt.Errorf("%w: there is no writer for %q", ErrUnsupportedFormat, name)
		}
		return f.section, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnexpectedFile, path)
}

// load reads an INI file the way python's configparser does: no inline
// comments, no backslash continuations and quotes kept as part of the value.
func load(path string) (*ini.File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		IgnoreContinuation:         true,
		PreserveSurroundedQuote:    true,
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read isort settings %s: %w", path, err)
	}
	return cfg, nil
}

// SplitList splits an isort list value. isort accepts both comma and newline
// separated lists.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(strings.ReplaceAll(value, "\n", ","), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// MergeSrcPaths returns the comma joined, deduplicated and sorted union of the
// entries in existing and srcPaths. Empty entries are dropped.
func MergeSrcPaths(existing string, srcPaths []string) string {
	set := treeset.NewWithStringComparator()
	for _, p := range SplitList(existing) {
		set.Add(p)
	}
	for _, p := range srcPaths {
		if p = strings.TrimSpace(p); p != "" {
			set.Add(p)
		}
	}

	parts := make([]string, 0, set.Size())
	it := set.Iterator()
	for it.Next() {
		parts = append(parts, it.Value().(string))
	}
	return strings.Join(parts, ",")
}

// GenerateWithSrcPaths writes a new settings file to output with srcPaths
// merged into the existing file's `src_paths`.
func GenerateWithSrcPaths(existing, output string, srcPaths []string) error {
	section, err := SectionFor(existing)
	if err != nil {
		return err
	}

	cfg, err := load(existing)
	if err != nil {
		return err
	}

	sec := cfg.Section(section)
	known := ""
	if sec.HasKey(SrcPathsKey) {
		known = sec.Key(SrcPathsKey).String()
	}
	sec.Key(SrcPathsKey).SetValue(MergeSrcPaths(known, srcPaths))

	flattenMultilineValues(cfg)

	if err := cfg.SaveTo(output); err != nil {
		return fmt.Errorf("failed to write isort settings %s: %w", output, err)
	}
	logger.Debugf("wrote isort settings %s [%s] %s = %s", output, section, SrcPathsKey, sec.Key(SrcPathsKey).String())
	return nil
}

// flattenMultilineValues rewrites continuation-line values as comma separated
// lists. The ini writer quotes multiline values in a form isort can't read,
// while every multiline isort setting is a list.
func flattenMultilineValues(cfg *ini.File) {
	for _, sec := range cfg.Sections() {
		for _, key := range sec.Keys() {
			if v := key.String(); strings.Contains(v, "\n") {
				key.SetValue(strings.Join(SplitList(v), ","))
			}
		}
	}
}

// Settings holds the isort options relevant to import placement.
type Settings struct {
	Path            string
	Section         string
	SrcPaths        []string
	KnownFirstParty []string
	KnownThirdParty []string
	SkipGlob        []string
	PyVersion       string
}

// Load reads the placement related settings from an isort settings file.
// Relative src_paths are resolved against the settings file's directory, and
// default to that directory and its "src" child like isort does.
func Load(path string) (*Settings, error) {
	section, err := SectionFor(path)
	if err != nil {
		return nil, err
	}
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	s := &Settings{Path: path, Section: section}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	sec, err := cfg.GetSection(section)
	if err != nil {
		// isort falls back to defaults when its section is absent.
		s.SrcPaths = []string{root, filepath.Join(root, "src")}
		return s, nil
	}

	list := func(key string) []string {
		if !sec.HasKey(key) {
			return nil
		}
		return SplitList(sec.Key(key).String())
	}

	for _, p := range list(SrcPathsKey) {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		s.SrcPaths = append(s.SrcPaths, filepath.Clean(p))
	}
	if !sec.HasKey(SrcPathsKey) {
		s.SrcPaths = []string{root, filepath.Join(root, "src")}
	}
	s.KnownFirstParty = list(KnownFirstPartyKey)
	s.KnownThirdParty = list(KnownThirdPartyKey)
	s.SkipGlob = list(SkipGlobKey)
	if sec.HasKey(PyVersionKey) {
		s.PyVersion = strings.TrimSpace(sec.Key(PyVersionKey).String())
	}
	return s, nil
}
