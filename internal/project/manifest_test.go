package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(contents), 0o644))
	return dir
}

func TestLoadManifest(t *testing.T) {
	dir := writeManifest(t, `
name: acme/vault
version: 1.2.0
description: time-locked vault scripts
dependencies:
  - name: nano/stdlib
    source: github
    version: ">= 1.0.0, < 2.0.0"
`)
	manifest, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "acme/vault", manifest.Name)
	require.Len(t, manifest.Dependencies, 1)
	assert.Equal(t, "nano/stdlib", manifest.Dependencies[0].Name)
}

func TestLoadRejectsMissingName(t *testing.T) {
	dir := writeManifest(t, "version: 1.0.0\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "project name")
}

func TestLoadRejectsBadVersion(t *testing.T) {
	dir := writeManifest(t, "name: x\nversion: not-a-version\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid project version")
}

func TestLoadRejectsDuplicateDependency(t *testing.T) {
	dir := writeManifest(t, `
name: x
dependencies:
  - name: a
    source: github
    version: "1.0.0"
  - name: a
    source: github
    version: "2.0.0"
`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "duplicate dependency")
}

func TestLoadRejectsBadConstraint(t *testing.T) {
	dir := writeManifest(t, `
name: x
dependencies:
  - name: a
    source: github
    version: "wat ??"
`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid version constraint")
}

func TestDependencySatisfies(t *testing.T) {
	dep := &Dependency{Name: "a", Version: ">= 1.2.0, < 2.0.0"}

	ok, err := dep.Satisfies("1.5.3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dep.Satisfies("2.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	anything := &Dependency{Name: "b"}
	ok, err = anything.Satisfies("0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	manifest := &Manifest{
		Name:    "acme/vault",
		Version: "0.1.0",
		Dependencies: []Dependency{
			{Name: "nano/stdlib", Source: "github", Version: ">= 1.0.0"},
		},
	}
	require.NoError(t, manifest.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, manifest.Name, loaded.Name)
	assert.Equal(t, manifest.Dependencies, loaded.Dependencies)
}
