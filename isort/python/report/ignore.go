package report

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"aspect.build/isort/internal/logger"
)

// newIgnoreFunction returns a function reporting whether a workspace relative
// path is ignored by one of the workspace's .gitignore files.
func newIgnoreFunction(workspace string) (func(string) bool, error) {
	var patterns []gitignore.Pattern

	err := filepath.WalkDir(workspace, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || strings.HasPrefix(d.Name(), "bazel-") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ".gitignore" {
			return nil
		}

		rel, err := filepath.Rel(workspace, filepath.Dir(p))
		if err != nil {
			return err
		}
		var domain []string
		if rel != "." {
			domain = strings.Split(filepath.ToSlash(rel), "/")
		}

		ps, err := readIgnoreFile(p, domain)
		if err != nil {
			return err
		}
		logger.Debugf("loaded %d ignore patterns from %s", len(ps), p)
		patterns = append(patterns, ps...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(patterns) == 0 {
		return func(string) bool { return false }, nil
	}

	matcher := gitignore.NewMatcher(patterns)
	return func(rel string) bool {
		return matcher.Match(strings.Split(rel, "/"), false)
	}, nil
}

func readIgnoreFile(path string, domain []string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ps []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	return ps, scanner.Err()
}
