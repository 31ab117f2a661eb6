package placement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"

	"aspect.build/isort/isort/settings"
)

// writeTree creates the given files, relative to a new temp dir, and
// returns the dir. Paths ending in "/" are created as empty directories.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(p, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func TestPlaceSrcPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod.py":                               "",
		"pkg/__init__.py":                      "",
		"pkg/sub.py":                           "",
		"ext.cpython-311-x86_64-linux-gnu.so":  "",
		"ns/inner/__init__.py":                 "",
		"nsempty/BUILD.bazel":                  "",
		"declared/__init__.py":                 "__path__ = __import__('pkgutil').extend_path(__path__, __name__)\n",
		"declared/thing.py":                    "",
		"regular/__init__.py":                  "",
		"plaindir/":                            "",
		"python/isort/tests/deps/lib/first.py": "",
	})
	placer := NewPlacer(New(root))

	testCases := []struct {
		module string
		want   Section
	}{
		{"mod", FIRSTPARTY},
		{"pkg", FIRSTPARTY},
		{"pkg.sub", FIRSTPARTY},
		{"pkg.missing", FIRSTPARTY},
		{"ext", FIRSTPARTY},
		{"plaindir", FIRSTPARTY},
		{"ns.inner", FIRSTPARTY},
		{"ns.other", THIRDPARTY},
		{"nsempty.x", THIRDPARTY},
		{"declared.thing", FIRSTPARTY},
		{"declared.missing", THIRDPARTY},
		{"regular.missing", FIRSTPARTY},
		{"python.isort.tests.deps.lib.first", FIRSTPARTY},
		{"python.elsewhere.dep", THIRDPARTY},
		{"requests", THIRDPARTY},
		{"os", STDLIB},
		{"os.path", STDLIB},
		{"__future__", FUTURE},
		{".sibling", LOCALFOLDER},
		{"..", LOCALFOLDER},
	}

	for _, tc := range testCases {
		t.Run(tc.module, func(t *testing.T) {
			got := placer.Place(tc.module)
			if got.Section != tc.want {
				t.Errorf("Place(%q) got %s (%s), want %s", tc.module, got.Section, got.Reason, tc.want)
			}
		})
	}
}

func TestPlaceSrcPathNamedLikeModule(t *testing.T) {
	root := writeTree(t, map[string]string{
		"library/first_party_2.py": "",
	})

	got := NewPlacer(New(filepath.Join(root, "library"))).Place("library.first_party_2")
	require.Equal(t, FIRSTPARTY, got.Section, got.Reason)

	got = NewPlacer(New(root)).Place("first_party_2")
	require.Equal(t, THIRDPARTY, got.Section, got.Reason)
}

func TestPlaceKnownPatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"requests.py": "",
	})
	cfg := New(root)
	cfg.KnownFirstParty = []string{"mycompany.*", "os", "acme.core", "lib?"}
	cfg.KnownThirdParty = []string{"requests", "mycompany.vendored"}
	placer := NewPlacer(cfg)

	testCases := []struct {
		module string
		want   Section
	}{
		{"mycompany.core", FIRSTPARTY},
		{"mycompany.core.sub", FIRSTPARTY},
		{"mycompany.vendored", FIRSTPARTY},
		{"os.path", FIRSTPARTY},
		{"requests", THIRDPARTY},
		{"requests.adapters", THIRDPARTY},
		{"sys", STDLIB},
		{"acme.core", FIRSTPARTY},
		{"acme_core", FIRSTPARTY},
		{"acme.core.io", FIRSTPARTY},
		{"acme", THIRDPARTY},
		{"libx", FIRSTPARTY},
		{"lib", FIRSTPARTY},
		{"libxy", THIRDPARTY},
	}

	for _, tc := range testCases {
		t.Run(tc.module, func(t *testing.T) {
			got := placer.Place(tc.module)
			require.Equal(t, tc.want, got.Section, got.Reason)
		})
	}
}

func TestStdlibVersions(t *testing.T) {
	testCases := []struct {
		module  string
		version string
		want    bool
	}{
		{"tomllib", "3.10", false},
		{"tomllib", "3.11", true},
		{"tomllib", "", true},
		{"distutils", "3.11", true},
		{"distutils", "3.12", false},
		{"telnetlib", "3.13", false},
		{"zoneinfo", "3.8", false},
		{"os", "3.13", true},
		{"requests", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.module+"@"+tc.version, func(t *testing.T) {
			var v *semver.Version
			if tc.version != "" {
				v = semver.MustParse(tc.version)
			}
			require.Equal(t, tc.want, IsStdlib(tc.module, v))
		})
	}
}

func TestParsePythonVersion(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "3", want: ""},
		{in: "auto", want: ""},
		{in: "all", want: ""},
		{in: "311", want: "3.11.0"},
		{in: "39", want: "3.9.0"},
		{in: "3.12", want: "3.12.0"},
		{in: "py310", want: "3.10.0"},
		{in: "27", wantErr: true},
		{in: "x", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePythonVersion(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.want == "" {
				require.Nil(t, got)
				return
			}
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestFromSettings(t *testing.T) {
	req := require.New(t)
	root := writeTree(t, map[string]string{
		".isort.cfg": "[settings]\nsrc_paths = lib\nknown_third_party = requests\npy_version = 311\n",
	})
	s, err := settings.Load(filepath.Join(root, ".isort.cfg"))
	req.NoError(err)

	cfg, err := FromSettings(s)
	req.NoError(err)
	req.Equal([]string{filepath.Join(root, "lib")}, cfg.SrcPaths)
	req.Equal([]string{"requests"}, cfg.KnownThirdParty)
	req.Equal("3.11.0", cfg.PythonVersion.String())

	child := cfg.NewChild("/extra")
	req.Equal([]string{filepath.Join(root, "lib"), "/extra"}, child.SrcPaths)
	req.Len(cfg.SrcPaths, 1, "parent must not be modified")
}
