package modulesmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const manifest = `# GENERATED FILE - DO NOT EDIT!
manifest:
  modules_mapping:
    tomlkit: tomlkit
    yaml: PyYAML
    google.protobuf: protobuf
    zope.interface: zope.interface
  pip_repository:
    name: pypi
integrity: 0123456789abcdef
`

func TestLabel(t *testing.T) {
	m, err := Parse([]byte(manifest))
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	testCases := []struct {
		module string
		want   string
	}{
		{"tomlkit", "@pypi//tomlkit"},
		{"yaml.loader", "@pypi//pyyaml"},
		{"google.protobuf.message", "@pypi//protobuf"},
		{"zope.interface", "@pypi//zope_interface"},
		{"google", ""},
		{"requests", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.module, func(t *testing.T) {
			got, ok := m.Label(tc.module)
			if tc.want == "" {
				require.False(t, ok, "got %s", got)
				return
			}
			require.True(t, ok)
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestDefaults(t *testing.T) {
	m, err := Parse([]byte("manifest:\n  modules_mapping:\n    attr: attrs\n"))
	require.NoError(t, err)
	got, ok := m.Label("attr")
	require.True(t, ok)
	require.Equal(t, "@pip//attrs", got.String())

	empty, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gazelle_python.yaml")
	require.NoError(t, os.WriteFile(p, []byte(manifest), 0644))
	m, err := Load(p)
	require.NoError(t, err)
	dist, ok := m.Distribution("yaml")
	require.True(t, ok)
	require.Equal(t, "PyYAML", dist)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Parse([]byte("manifest: [unterminated"))
	require.Error(t, err)
}
