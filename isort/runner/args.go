package runner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aspect.build/isort/isort/environ"
	"aspect.build/isort/isort/rlocation"
)

const (
	UseDescription   = "isort_runner --src FILE [--src FILE...] --settings-path FILE [flags] [-- ISORT_ARGS...]"
	ShortDescription = "isort process wrapper for Bazel actions and tests"
	LongDescription  = `isort_runner runs isort on a set of Python sources as part of a Bazel action.

The first party import roots given with --import are resolved against the
runfiles directory and merged into the src_paths of a copy of the settings
file. isort's exit code is propagated unchanged and, on failure, its output
is printed with sandbox paths redacted.

Arguments after "--" are forwarded verbatim to isort.`
)

// Args are the parsed command line arguments of the runner.
type Args struct {
	// The file to create as an indication that the check succeeded.
	Marker string

	// The source files to perform formatting on.
	Sources []string

	// Runfiles relative import paths for first party directories.
	Imports []string

	// The path to an isort settings file.
	SettingsPath string

	// The isort executable. Empty means "isort" from PATH.
	Isort string

	// Remaining arguments to forward to isort.
	IsortArgs []string
}

// NewCommand returns the root command of the runner. Arguments that name
// files consumed by the runner are resolved with resolver before action runs.
func NewCommand(resolver *rlocation.Resolver, action func(context.Context, *Args) error) *cobra.Command {
	var (
		marker       string
		sources      []string
		imports      []string
		settingsPath string
		isort        string
	)

	cmd := &cobra.Command{
		Use:           UseDescription,
		Short:         ShortDescription,
		Long:          LongDescription,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			a := &Args{
				Marker:    marker,
				Imports:   imports,
				IsortArgs: positional,
			}

			for _, src := range sources {
				p, err := resolver.MaybeRunfile(src)
				if err != nil {
					return err
				}
				a.Sources = append(a.Sources, p)
			}

			var err error
			if a.SettingsPath, err = resolver.MaybeRunfile(settingsPath); err != nil {
				return err
			}
			if isort != "" {
				if a.Isort, err = resolver.MaybeRunfile(isort); err != nil {
					return err
				}
			}

			return action(cmd.Context(), a)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&marker, "marker", "", "The file to create as an indication that the isort check succeeded.")
	flags.StringArrayVar(&sources, "src", nil, "The source file to perform formatting on. May be repeated.")
	flags.StringArrayVar(&imports, "import", nil, "Import paths for first party directories. May be repeated.")
	flags.StringVar(&settingsPath, "settings-path", "", "The path to an isort config file.")
	flags.StringVar(&isort, "isort", "", "The isort executable (default: isort from PATH).")
	_ = cmd.MarkFlagRequired("src")
	_ = cmd.MarkFlagRequired("settings-path")

	return cmd
}

// ParseArgs parses args without running anything.
func ParseArgs(args []string, resolver *rlocation.Resolver) (*Args, error) {
	var parsed *Args
	cmd := NewCommand(resolver, func(_ context.Context, a *Args) error {
		parsed = a
		return nil
	})
	// A nil slice makes cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, fmt.Errorf("no arguments parsed from %q", args)
	}
	return parsed, nil
}

// CommandLine returns the arguments the runner should parse. Under `bazel test`
// the arguments may be provided through a runfile named by
// PY_ISORT_RUNNER_ARGS_FILE, one argument per line.
func CommandLine(e *environ.Env, resolver *rlocation.Resolver, argv []string) ([]string, error) {
	if !e.InBazelTest() || !e.IsSet(environ.RunnerArgsFile) {
		return argv, nil
	}

	l, err := resolver.Locator()
	if err != nil {
		return nil, err
	}
	argFile, err := rlocation.Rlocation(l, e.Get(environ.RunnerArgsFile))
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(argFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read args file %s: %w", argFile, err)
	}
	return splitLines(string(content)), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
