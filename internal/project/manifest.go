// Package project loads and validates nano.yaml project manifests and the
// dependency constraints they declare.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file a project is identified by.
const ManifestName = "nano.yaml"

// Manifest describes a Nano project: its identity and the packages it
// depends on.
type Manifest struct {
	Name         string       `yaml:"name"`
	Version      string       `yaml:"version"`
	Description  string       `yaml:"description,omitempty"`
	License      string       `yaml:"license,omitempty"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// Dependency names a package source together with a version constraint.
type Dependency struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source"`
	Version string `yaml:"version"`
}

// Load reads and validates the manifest in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("malformed manifest %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks the manifest's own fields and every dependency
// constraint.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest is missing a project name")
	}
	if m.Version != "" {
		if _, err := goversion.NewVersion(m.Version); err != nil {
			return fmt.Errorf("invalid project version %q: %w", m.Version, err)
		}
	}
	seen := map[string]bool{}
	for _, dep := range m.Dependencies {
		if dep.Name == "" {
			return fmt.Errorf("dependency with empty name")
		}
		if seen[dep.Name] {
			return fmt.Errorf("duplicate dependency %q", dep.Name)
		}
		seen[dep.Name] = true
		if dep.Version != "" {
			if _, err := goversion.NewConstraint(dep.Version); err != nil {
				return fmt.Errorf("invalid version constraint %q for %s: %w", dep.Version, dep.Name, err)
			}
		}
	}
	return nil
}

// Satisfies reports whether a resolved version satisfies the dependency's
// constraint; an empty constraint accepts anything.
func (d *Dependency) Satisfies(resolved string) (bool, error) {
	if d.Version == "" {
		return true, nil
	}
	constraint, err := goversion.NewConstraint(d.Version)
	if err != nil {
		return false, err
	}
	version, err := goversion.NewVersion(resolved)
	if err != nil {
		return false, err
	}
	return constraint.Check(version), nil
}

// Save writes the manifest back to dir.
func (m *Manifest) Save(dir string) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), raw, 0o644)
}
