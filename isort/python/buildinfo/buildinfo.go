// Package buildinfo reads the python rules of a Bazel workspace to find the
// import roots of a source file, the directories the runner passes to isort
// as first party src_paths.
package buildinfo

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/buildtools/build"
	"github.com/emirpasic/gods/sets/treeset"

	"aspect.build/isort/internal/logger"
)

var ErrNoPackage = errors.New("file is not inside a Bazel package")

// BuildFileNames are the recognised BUILD file names, in lookup order.
var BuildFileNames = []string{"BUILD.bazel", "BUILD"}

// PythonRuleKinds are the rules whose srcs and imports are inspected.
var PythonRuleKinds = treeset.NewWithStringComparator("py_library", "py_binary", "py_test")

// Root is an import root: a workspace relative directory on the python path
// of a target. The workspace root itself has Path "".
type Root struct {
	Path string

	// The target declaring the root, or the zero label for the workspace root.
	Target label.Label
}

// ImportRoots returns the import roots of the python targets that list file,
// a workspace relative path, in their srcs. The workspace root always comes
// first.
func ImportRoots(workspace, file string) ([]Root, error) {
	file = path.Clean(filepath.ToSlash(file))

	pkg, buildFile, err := findPackage(workspace, path.Dir(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	content, err := os.ReadFile(buildFile)
	if err != nil {
		return nil, err
	}
	f, err := build.ParseBuild(buildFile, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", buildFile, err)
	}

	roots := []Root{{Path: ""}}
	seen := map[string]bool{"": true}

	for _, r := range f.Rules("") {
		if !PythonRuleKinds.Contains(r.Kind()) {
			continue
		}
		target := label.New("", pkg, r.Name())
		if !listsSource(r.AttrStrings("srcs"), pkg, file) {
			continue
		}

		for _, imp := range r.AttrStrings("imports") {
			root := path.Join(pkg, imp)
			if root == "." {
				root = ""
			}
			if root == ".." || strings.HasPrefix(root, "../") {
				logger.Warnf("%s: import %q escapes the workspace, ignoring", target, imp)
				continue
			}
			if seen[root] {
				continue
			}
			seen[root] = true
			logger.Debugf("%s: import root %q from %s", file, root, target)
			roots = append(roots, Root{Path: root, Target: target})
		}
	}
	return roots, nil
}

// SrcPaths returns the absolute directories of roots.
func SrcPaths(workspace string, roots []Root) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, filepath.Join(workspace, filepath.FromSlash(r.Path)))
	}
	return out
}

// findPackage walks up from dir to the closest directory with a BUILD file.
func findPackage(workspace, dir string) (string, string, error) {
	for {
		if dir == "." {
			dir = ""
		}
		for _, name := range BuildFileNames {
			p := filepath.Join(workspace, filepath.FromSlash(dir), name)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return dir, p, nil
			}
		}
		if dir == "" {
			return "", "", ErrNoPackage
		}
		dir = path.Dir(dir)
	}
}

// listsSource reports whether one of the srcs labels names file.
func listsSource(srcs []string, pkg, file string) bool {
	for _, src := range srcs {
		l, err := label.Parse(src)
		if err != nil {
			logger.Warnf("invalid label %q in //%s: %v", src, pkg, err)
			continue
		}
		if l.Repo != "" {
			continue
		}
		srcPkg := l.Pkg
		if l.Relative {
			srcPkg = pkg
		}
		if path.Join(srcPkg, l.Name) == file {
			return true
		}
	}
	return false
}
