// Package services holds the backend service capability registry, the
// operation router that binds an operation to a service, and the adapter
// factory that turns a selection into an invocable backend.
package services

import (
	"github.com/meridianhq/meridian/mimeutil"
)

// Kind identifies how a backend service is invoked. The set is closed:
// unknown kinds are rejected at registry load and at adapter build.
type Kind string

const (
	// KindHTTP invokes the backend via an HTTP request to its URL
	KindHTTP Kind = "http"
	// KindDocker invokes the backend as a local container execution
	KindDocker Kind = "docker"
	// KindNoOp performs no backend work and only carries a diagnostic
	// message back to the caller
	KindNoOp Kind = "noop"
)

// IsValidKind returns true if the string names a recognized backend kind
func IsValidKind(s string) bool {
	switch Kind(s) {
	case KindHTTP, KindDocker, KindNoOp:
		return true
	default:
		return false
	}
}

// Capabilities describes what operations a backend service can perform.
type Capabilities struct {
	VariableSubsetting bool `yaml:"variable_subsetting"`
	// OutputFormats lists supported output MIME types in preference order
	OutputFormats []string `yaml:"output_formats"`
}

// Descriptor is the static capability record for one backend service.
// Descriptors are immutable after registry load.
type Descriptor struct {
	Name         string       `yaml:"name"`
	Kind         Kind         `yaml:"kind"`
	URL          string       `yaml:"url"`
	Collections  []string     `yaml:"collections"`
	Capabilities Capabilities `yaml:"capabilities"`
	Enabled      bool         `yaml:"enabled"`

	// Message carries diagnostic text on the built-in no-op descriptor.
	// Empty for configured services.
	Message string `yaml:"-"`
}

// HasCollection returns true if the service operates on the collection
func (d Descriptor) HasCollection(id string) bool {
	for _, c := range d.Collections {
		if c == id {
			return true
		}
	}
	return false
}

// SupportsFormat returns true if any of the service's output formats is
// accepted by the given MIME pattern
func (d Descriptor) SupportsFormat(pattern string) bool {
	for _, f := range d.Capabilities.OutputFormats {
		if mimeutil.Match(pattern, f) {
			return true
		}
	}
	return false
}

// FirstFormatMatching returns the first declared output format accepted by
// the pattern, or "" if none match
func (d Descriptor) FirstFormatMatching(pattern string) string {
	for _, f := range d.Capabilities.OutputFormats {
		if mimeutil.Match(pattern, f) {
			return f
		}
	}
	return ""
}
