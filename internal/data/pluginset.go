package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PluginEntry is one module listed in a plugin-set file.
type PluginEntry struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
	Note     string `yaml:"note"`
}

// PluginSet is an ordered list of plugin modules to load.
type PluginSet struct {
	Name    string        `yaml:"name"`
	Plugins []PluginEntry `yaml:"plugins"`

	dir string
}

// LoadPluginSet loads a plugin-set YAML file. Relative plugin paths are
// resolved against the directory holding the file.
func LoadPluginSet(path string) (*PluginSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin set: %w", err)
	}
	set := &PluginSet{}
	if err := yaml.Unmarshal(raw, set); err != nil {
		return nil, fmt.Errorf("parse plugin set: %w", err)
	}
	for i, e := range set.Plugins {
		if e.Path == "" {
			return nil, fmt.Errorf("plugin set %s: entry %d has no path", path, i)
		}
	}
	set.dir = filepath.Dir(path)
	return set, nil
}

// Paths returns the enabled module paths in file order.
func (s *PluginSet) Paths() []string {
	out := make([]string, 0, len(s.Plugins))
	for _, e := range s.Plugins {
		if e.Disabled {
			continue
		}
		p := e.Path
		if !filepath.IsAbs(p) && s.dir != "" {
			p = filepath.Join(s.dir, p)
		}
		out = append(out, p)
	}
	return out
}

// Count returns the number of entries, disabled ones included.
func (s *PluginSet) Count() int {
	return len(s.Plugins)
}
