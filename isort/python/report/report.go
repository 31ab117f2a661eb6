// Package report places every import of a set of python files the way isort
// would, and renders the result grouped by section.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/yargevad/filepathx"

	"aspect.build/isort/internal/logger"
	"aspect.build/isort/isort/python/buildinfo"
	"aspect.build/isort/isort/python/modulesmap"
	"aspect.build/isort/isort/python/parser"
	"aspect.build/isort/isort/python/placement"
)

const (
	MaxWorkerCount = 12
)

// Options selects the files to report on and how their imports are placed.
type Options struct {
	// Glob patterns of the files to report on. "**" matches any number of
	// directories.
	Patterns []string

	// Patterns of workspace relative paths to skip, such as isort's skip_glob.
	Excludes []string

	// The Bazel workspace the files belong to. When set, the import roots of
	// each file's python targets are added to its src_paths and gitignored
	// files are skipped.
	Workspace string

	// Placement configuration shared by every file.
	Config *placement.Config

	// Optional mapping of third party modules to pip targets.
	ModulesMap *modulesmap.ModulesMap
}

// Import is a placed import statement.
type Import struct {
	Statement *parser.ImportStatement
	Placement placement.Placement

	// The pip target providing a third party import, or "".
	Label string
}

// File is the report of a single source file.
type File struct {
	// The path as displayed: workspace relative when inside the workspace.
	Path    string
	Imports []*Import
	Errors  []error
}

// Sections returns the file's imports keyed by section, in source order.
func (f *File) Sections() map[placement.Section][]*Import {
	out := make(map[placement.Section][]*Import)
	for _, imp := range f.Imports {
		out[imp.Placement.Section] = append(out[imp.Placement.Section], imp)
	}
	return out
}

// Generate parses and places the imports of every matching file. The result
// is sorted by path.
func Generate(opts *Options) ([]*File, error) {
	if opts.Config == nil {
		return nil, errors.New("report: a placement config is required")
	}

	sources, err := CollectSourceFiles(opts)
	if err != nil {
		return nil, err
	}
	logger.Infof("%v matched %d files", opts.Patterns, sources.Size())

	var files []*File
	for f := range generateFiles(opts, sources) {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// CollectSourceFiles returns the sorted absolute paths of the python files
// matching opts.Patterns that are neither excluded nor gitignored.
func CollectSourceFiles(opts *Options) (*treeset.Set, error) {
	sourceFiles := treeset.NewWithStringComparator()

	for _, p := range opts.Excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	isIgnored := func(string) bool { return false }
	if opts.Workspace != "" {
		var err error
		isIgnored, err = newIgnoreFunction(opts.Workspace)
		if err != nil {
			return nil, err
		}
	}

	for _, pattern := range opts.Patterns {
		matches, err := filepathx.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !isSourceFileType(m) {
				continue
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			rel := displayPath(opts.Workspace, abs)
			if isExcluded(opts.Excludes, rel) {
				logger.Debugf("excluded: %s", rel)
				continue
			}
			if isIgnored(rel) {
				logger.Debugf("gitignored: %s", rel)
				continue
			}
			logger.Tracef("SourceFile: %s", rel)
			sourceFiles.Add(abs)
		}
	}

	return sourceFiles, nil
}

func generateFiles(opts *Options, sources *treeset.Set) chan *File {
	// The channel of all files to report on.
	sourcePathChannel := make(chan string)

	resultsChannel := make(chan *File)

	// Don't create more workers than necessary.
	workerCount := int(math.Min(MaxWorkerCount, float64(1+sources.Size()/2)))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p := parser.NewParser()
			for sourcePath := range sourcePathChannel {
				resultsChannel <- reportFile(opts, p, sourcePath)
			}
		}()
	}

	go func() {
		it := sources.Iterator()
		for it.Next() {
			sourcePathChannel <- it.Value().(string)
		}

		close(sourcePathChannel)
	}()

	go func() {
		wg.Wait()
		close(resultsChannel)
	}()

	return resultsChannel
}

func reportFile(opts *Options, p parser.Parser, absPath string) *File {
	rel := displayPath(opts.Workspace, absPath)
	f := &File{Path: rel}

	content, err := os.ReadFile(absPath)
	if err != nil {
		f.Errors = append(f.Errors, err)
		return f
	}

	result, errs := p.Parse(rel, string(content))
	f.Errors = append(f.Errors, errs...)

	placer := placement.NewPlacer(fileConfig(opts, rel))
	for _, stmt := range result.Imports {
		module := stmt.ModuleLiteral()
		imp := &Import{
			Statement: stmt,
			Placement: placer.Place(module),
		}
		if imp.Placement.Section == placement.THIRDPARTY && opts.ModulesMap != nil {
			if l, ok := opts.ModulesMap.Label(module); ok {
				imp.Label = l.String()
			}
		}
		f.Imports = append(f.Imports, imp)
	}
	return f
}

// fileConfig adds the import roots of the file's targets to the shared
// config, like the runner does with the --import flags of an isort action.
func fileConfig(opts *Options, rel string) *placement.Config {
	if opts.Workspace == "" || filepath.IsAbs(rel) {
		return opts.Config
	}

	roots, err := buildinfo.ImportRoots(opts.Workspace, rel)
	if err != nil {
		if !errors.Is(err, buildinfo.ErrNoPackage) {
			logger.Warnf("unable to read the import roots of %s: %v", rel, err)
		}
		return opts.Config.NewChild(opts.Workspace)
	}
	return opts.Config.NewChild(buildinfo.SrcPaths(opts.Workspace, roots)...)
}

// displayPath returns the workspace relative slash separated path of abs, or
// abs itself when it is outside the workspace.
func displayPath(workspace, abs string) string {
	if workspace == "" {
		return abs
	}
	rel, err := filepath.Rel(workspace, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return filepath.ToSlash(rel)
}

func isExcluded(excludes []string, rel string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func isSourceFileType(f string) bool {
	ext := filepath.Ext(f)
	return ext == ".py" || ext == ".pyi"
}

// Write renders the files' imports grouped by section in isort's order.
func Write(w io.Writer, files []*File, verbose bool) error {
	for i, f := range files {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, f.Path); err != nil {
			return err
		}

		sections := f.Sections()
		for _, section := range placement.Sections {
			imports := sections[section]
			if len(imports) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", section); err != nil {
				return err
			}
			for _, imp := range imports {
				line := fmt.Sprintf("    %d: %s", imp.Statement.Line(), imp.Statement)
				if imp.Label != "" {
					line += " (" + imp.Label + ")"
				}
				if verbose {
					line += "  # " + imp.Placement.Reason
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
		}

		for _, parseErr := range f.Errors {
			if _, err := fmt.Fprintf(w, "  ERROR %v\n", parseErr); err != nil {
				return err
			}
		}
	}
	return nil
}
