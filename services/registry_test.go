package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServicesConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	t.Setenv("SUBSETTER_IMAGE", "registry.internal/subsetter:v3")

	path := writeServicesConfig(t, `
services:
  - name: tiff-reprojector
    kind: http
    url: http://reproject.internal/invoke
    enabled: true
    collections: [C100-OCEAN]
    capabilities:
      variable_subsetting: false
      output_formats: ["image/tiff", "image/png"]
  - name: variable-subsetter
    kind: docker
    url: ${SUBSETTER_IMAGE}
    enabled: true
    collections: [C100-OCEAN]
    capabilities:
      variable_subsetting: true
      output_formats: ["application/x-netcdf4"]
  - name: retired-service
    kind: http
    url: http://old.internal
    enabled: false
    collections: [C100-OCEAN]
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "tiff-reprojector", all[0].Name)
	assert.Equal(t, "variable-subsetter", all[1].Name)
	assert.Equal(t, "registry.internal/subsetter:v3", all[1].URL)
	assert.Equal(t, []string{"image/tiff", "image/png"}, all[0].Capabilities.OutputFormats)
}

func TestLoadRegistryUnresolvedPlaceholder(t *testing.T) {
	path := writeServicesConfig(t, `
services:
  - name: broken
    kind: http
    url: ${DEFINITELY_NOT_SET_ANYWHERE}
    enabled: true
    collections: [C1]
`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_NOT_SET_ANYWHERE")
}

func TestLoadRegistryUnknownKind(t *testing.T) {
	path := writeServicesConfig(t, `
services:
  - name: mystery
    kind: quantum
    enabled: true
    collections: [C1]
`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantum")
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadRegistryIgnoresDisabledKinds(t *testing.T) {
	// Disabled entries are dropped before kind validation; a disabled
	// entry with a bogus kind must not fail the load.
	path := writeServicesConfig(t, `
services:
  - name: good
    kind: http
    enabled: true
    collections: [C1]
  - name: disabled-bogus
    kind: quantum
    enabled: false
    collections: [C1]
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryAllReturnsCopy(t *testing.T) {
	reg := NewRegistry([]Descriptor{{Name: "a", Kind: KindHTTP}})

	first := reg.All()
	first[0].Name = "mutated"

	assert.Equal(t, "a", reg.All()[0].Name)
}
