package runner

import (
	"sort"
	"strings"
)

// Sanitize redacts sandbox locations from isort output. Runfiles roots become
// "//" and the working directory becomes "/". Overlapping runfiles roots are
// replaced longest first.
func Sanitize(output string, runfilesRoots []string, cwd string) string {
	roots := append([]string(nil), runfilesRoots...)
	sort.SliceStable(roots, func(i, j int) bool {
		return len(roots[i]) > len(roots[j])
	})

	for _, root := range roots {
		output = replace(output, root, "//")
	}
	return replace(output, cwd, "/")
}

func replace(s, old, with string) string {
	if old == "" || old == with {
		return s
	}
	return strings.ReplaceAll(s, old, with)
}
