package environ

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsKnownVariables(t *testing.T) {
	req := require.New(t)
	t.Setenv(BazelTest, "")
	t.Setenv(RunfilesDir, "/sandbox/runfiles")
	t.Setenv("UNRELATED_VARIABLE", "x")

	e, err := Load()
	req.NoError(err)

	req.True(e.InBazelTest(), "BAZEL_TEST is set even though it is empty")
	req.Equal("/sandbox/runfiles", e.Get(RunfilesDir))
	req.False(e.IsSet("UNRELATED_VARIABLE"))
	req.Equal("warn", e.Get(RunnerLogLevel))
}

func TestRunfilesRootPrecedence(t *testing.T) {
	testCases := []struct {
		name   string
		vars   map[string]string
		want   string
		wantOK bool
	}{
		{
			name:   "venv wins",
			vars:   map[string]string{VenvRunfilesDir: "/venv", RunfilesDir: "/runfiles"},
			want:   "/venv",
			wantOK: true,
		},
		{
			name:   "runfiles dir",
			vars:   map[string]string{RunfilesDir: "/runfiles"},
			want:   "/runfiles",
			wantOK: true,
		},
		{
			name: "neither",
			vars: map[string]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			e, err := FromMap(tc.vars)
			req.NoError(err)

			got, ok := e.RunfilesRoot()
			req.Equal(tc.wantOK, ok)
			req.Equal(tc.want, got)
		})
	}
}

func TestSanitizePrefixesSkipsEmpty(t *testing.T) {
	req := require.New(t)
	e, err := FromMap(map[string]string{RunfilesDir: "", VenvRunfilesDir: "/venv"})
	req.NoError(err)
	req.Equal([]string{"/venv"}, e.SanitizePrefixes())
}

func TestEnvironOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv(RunnerMain, "stale")

	got := Environ(map[string]string{RunnerMain: "/bin/runner"})

	req.Contains(got, RunnerMain+"=/bin/runner")
	req.NotContains(got, RunnerMain+"=stale")
}
