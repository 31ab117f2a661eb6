package placement

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"aspect.build/isort/internal/logger"
)

// Section is an isort import section.
type Section int

const (
	FUTURE Section = iota
	STDLIB
	THIRDPARTY
	FIRSTPARTY
	LOCALFOLDER
)

var sectionNames = [...]string{"FUTURE", "STDLIB", "THIRDPARTY", "FIRSTPARTY", "LOCALFOLDER"}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("Section(%d)", int(s))
	}
	return sectionNames[s]
}

// Sections lists every section in isort's output order.
var Sections = []Section{FUTURE, STDLIB, THIRDPARTY, FIRSTPARTY, LOCALFOLDER}

// Placement is the section an import belongs to and why.
type Placement struct {
	Section Section
	Reason  string
}

// Extensions of python sources and compiled extension modules.
var (
	sourceExtensions    = []string{".py", ".pyi", ".pyx", ".pxd"}
	extensionExtensions = []string{".so", ".pyd"}
)

// Markers of a pkg_resources or pkgutil style namespace package __init__.py.
var namespaceDeclarations = [][]byte{
	[]byte(`__import__('pkg_resources').declare_namespace(__name__)`),
	[]byte(`__import__("pkg_resources").declare_namespace(__name__)`),
	[]byte(`__path__ = __import__('pkgutil').extend_path(__path__, __name__)`),
	[]byte(`__path__ = __import__("pkgutil").extend_path(__path__, __name__)`),
}

type knownPattern struct {
	re      *regexp.Regexp
	raw     string
	section Section
}

// Placer assigns isort sections to module names.
type Placer struct {
	cfg   *Config
	known []knownPattern
}

func NewPlacer(cfg *Config) *Placer {
	p := &Placer{cfg: cfg}

	// Configured patterns take precedence over the standard library.
	for _, k := range []struct {
		patterns []string
		section  Section
	}{
		{cfg.KnownFirstParty, FIRSTPARTY},
		{cfg.KnownThirdParty, THIRDPARTY},
		{[]string{"__future__"}, FUTURE},
	} {
		for _, raw := range k.patterns {
			p.known = append(p.known, knownPattern{
				re:      compileKnownPattern(raw),
				raw:     raw,
				section: k.section,
			})
		}
	}
	return p
}

// compileKnownPattern translates a known_* entry the way isort does: "*" and
// "?" become ".*" and ".?", and "." keeps its regex meaning.
func compileKnownPattern(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\.`, ".")
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".?")
	return regexp.MustCompile("^" + quoted + "$")
}

// Place returns the section isort would put an import of module in.
func (p *Placer) Place(module string) Placement {
	placement := p.place(module)
	logger.Tracef("placed %q in %s: %s", module, placement.Section, placement.Reason)
	return placement
}

func (p *Placer) place(module string) Placement {
	if strings.HasPrefix(module, ".") {
		return Placement{LOCALFOLDER, "Module name started with a dot."}
	}

	if placement, ok := p.knownPattern(module); ok {
		return placement
	}

	if placement, ok := p.srcPath(module, p.cfg.SrcPaths, nil); ok {
		return placement
	}

	return Placement{THIRDPARTY, "Default option in Config or universal default."}
}

// knownPattern checks the module and then each parent against the
// configured patterns and the standard library.
func (p *Placer) knownPattern(module string) (Placement, bool) {
	parts := strings.Split(module, ".")
	for n := len(parts); n > 0; n-- {
		candidate := strings.Join(parts[:n], ".")
		for _, k := range p.known {
			if k.re.MatchString(candidate) {
				return Placement{k.section, fmt.Sprintf("%s matched configured pattern %s", candidate, k.raw)}, true
			}
		}
		if IsStdlib(candidate, p.cfg.PythonVersion) {
			return Placement{STDLIB, fmt.Sprintf("%s is part of the standard library", candidate)}, true
		}
	}
	return Placement{}, false
}

// srcPath looks the module up in the given directories. A dotted name whose
// root is a namespace package is looked up inside that package only.
func (p *Placer) srcPath(name string, srcPaths []string, prefix []string) (Placement, bool) {
	root, nested, isNested := strings.Cut(name, ".")

	for _, src := range srcPaths {
		modulePath := filepath.Join(src, root)
		if len(prefix) == 0 && !isDir(modulePath) && filepath.Base(src) == root {
			modulePath = src
		}

		if isNested && isNamespacePackage(modulePath) {
			return p.srcPath(nested, []string{modulePath}, append(prefix, root))
		}

		if isModule(modulePath) || isDir(modulePath) || (filepath.Base(src) == root && isDir(src)) {
			return Placement{FIRSTPARTY, fmt.Sprintf("Found in one of the configured src_paths: %s.", src)}, true
		}
	}
	return Placement{}, false
}

func isModule(path string) bool {
	for _, ext := range append(sourceExtensions, extensionExtensions...) {
		if isFile(path + ext) {
			return true
		}
	}
	// Extension modules carry a platform tag: m.cpython-311-x86_64-linux-gnu.so
	for _, ext := range extensionExtensions {
		if matches, _ := filepath.Glob(path + ".*" + ext); len(matches) > 0 {
			return true
		}
	}
	return false
}

func isNamespacePackage(path string) bool {
	if !isDir(path) {
		return false
	}

	initFile := filepath.Join(path, "__init__.py")
	if !isFile(initFile) {
		entries, err := os.ReadDir(path)
		if err != nil {
			return false
		}
		for _, e := range entries {
			name := strings.ToLower(e.Name())
			if name == "setup.cfg" || name == "pyproject.toml" {
				return false
			}
			for _, ext := range sourceExtensions {
				if filepath.Ext(name) == ext {
					return false
				}
			}
		}
		return true
	}

	f, err := os.Open(initFile)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 4096)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	for _, decl := range namespaceDeclarations {
		if bytes.Contains(head[:n], decl) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
