// importdump prints where isort would place every import of a set of python
// files, the way the isort runner would configure it for each file's target.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"aspect.build/isort/internal/logger"
	"aspect.build/isort/isort/python/modulesmap"
	"aspect.build/isort/isort/python/placement"
	"aspect.build/isort/isort/python/report"
	"aspect.build/isort/isort/settings"
)

var (
	patterns       = pflag.StringArray("pattern", nil, "Glob pattern of the files to report on; ** matches any number of directories")
	excludes       = pflag.StringArray("exclude", nil, "Workspace relative glob pattern of files to skip")
	settingsPath   = pflag.String("settings-path", "", "isort settings file providing src_paths, known_* and skip_glob")
	imports        = pflag.StringArray("import", nil, "Extra first party src path")
	workspace      = pflag.String("workspace", "", "Bazel workspace root; enables per target import roots")
	modulesMapping = pflag.String("modules-mapping", "", "gazelle_python.yaml mapping third party modules to pip targets")
	pythonVersion  = pflag.String("python-version", "", "Python version selecting the standard library, overrides py_version")
	verbose        = pflag.BoolP("verbose", "v", false, "Print the reason for every placement")
)

func main() {
	pflag.Parse()
	if err := mainErr(); err != nil {
		logger.Errorf("failed with error %v", err)
		os.Exit(1)
	}
}

func mainErr() error {
	opts, err := options()
	if err != nil {
		return err
	}

	files, err := report.Generate(opts)
	if err != nil {
		return err
	}

	if err := report.Write(os.Stdout, files, *verbose); err != nil {
		return err
	}

	errCount := 0
	for _, f := range files {
		errCount += len(f.Errors)
	}
	logger.Infof("%d total files, %d errors", len(files), errCount)
	if errCount > 0 {
		return fmt.Errorf("%d parse error(s)", errCount)
	}
	return nil
}

func options() (*report.Options, error) {
	opts := &report.Options{
		Patterns: append(*patterns, pflag.Args()...),
		Excludes: *excludes,
		Config:   placement.New(),
	}
	if len(opts.Patterns) == 0 {
		return nil, fmt.Errorf("at least one --pattern is required")
	}

	if *workspace != "" {
		ws, err := filepath.Abs(*workspace)
		if err != nil {
			return nil, err
		}
		opts.Workspace = ws
	}

	if *settingsPath != "" {
		s, err := settings.Load(*settingsPath)
		if err != nil {
			return nil, err
		}
		cfg, err := placement.FromSettings(s)
		if err != nil {
			return nil, err
		}
		opts.Config = cfg
		opts.Excludes = append(opts.Excludes, s.SkipGlob...)
	} else if opts.Workspace != "" {
		opts.Config = placement.New(opts.Workspace)
	}

	if len(*imports) > 0 {
		opts.Config = opts.Config.NewChild(*imports...)
	}

	if *pythonVersion != "" {
		v, err := placement.ParsePythonVersion(*pythonVersion)
		if err != nil {
			return nil, err
		}
		opts.Config.PythonVersion = v
	}

	if *modulesMapping != "" {
		mm, err := modulesmap.Load(*modulesMapping)
		if err != nil {
			return nil, err
		}
		logger.Debugf("loaded %d module mappings from %s", mm.Len(), *modulesMapping)
		opts.ModulesMap = mm
	}

	return opts, nil
}
