// Package modulesmap reads the gazelle_python.yaml manifest that maps python
// modules to the pip distributions providing them.
package modulesmap

import (
	"fmt"
	"os"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"gopkg.in/yaml.v3"
)

const DefaultPipRepository = "pip"

type manifestFile struct {
	Manifest struct {
		ModulesMapping map[string]string `yaml:"modules_mapping"`
		PipRepository  struct {
			Name string `yaml:"name"`
		} `yaml:"pip_repository"`
	} `yaml:"manifest"`
}

// ModulesMap maps python modules to pip distributions.
type ModulesMap struct {
	modules map[string]string
	repo    string
}

// Load reads a gazelle_python.yaml manifest.
func Load(path string) (*ModulesMap, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

func Parse(content []byte) (*ModulesMap, error) {
	var f manifestFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("invalid modules mapping: %w", err)
	}
	m := &ModulesMap{
		modules: f.Manifest.ModulesMapping,
		repo:    f.Manifest.PipRepository.Name,
	}
	if m.modules == nil {
		m.modules = map[string]string{}
	}
	if m.repo == "" {
		m.repo = DefaultPipRepository
	}
	return m, nil
}

// Distribution returns the distribution providing module or its closest
// parent package.
func (m *ModulesMap) Distribution(module string) (string, bool) {
	for {
		if dist, ok := m.modules[module]; ok {
			return dist, true
		}
		i := strings.LastIndexByte(module, '.')
		if i < 0 {
			return "", false
		}
		module = module[:i]
	}
}

// Label returns the pip repository target of the distribution providing
// module, e.g. "@pip//pyyaml" for "yaml".
func (m *ModulesMap) Label(module string) (label.Label, bool) {
	dist, ok := m.Distribution(module)
	if !ok {
		return label.NoLabel, false
	}
	pkg := normalizeDistribution(dist)
	return label.New(m.repo, pkg, pkg), true
}

// normalizeDistribution applies the pip repository naming of distributions.
func normalizeDistribution(dist string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, strings.ToLower(dist))
}

func (m *ModulesMap) Len() int {
	return len(m.modules)
}
