package services

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meridianhq/meridian/errors"
)

// Registry holds the validated list of backend service descriptors. It is
// populated once, before the router is first used, and never mutated
// afterwards. Tests inject alternate descriptor lists via NewRegistry.
type Registry struct {
	descriptors []Descriptor
}

// servicesDocument is the shape of the services configuration file.
type servicesDocument struct {
	Services []Descriptor `yaml:"services"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv resolves ${NAME} placeholders against the process environment.
// Unset variables are an error: a registry with dangling placeholders must
// not reach the router.
func expandEnv(content string) (string, error) {
	var missing []string
	expanded := envPlaceholder.ReplaceAllStringFunc(content, func(match string) string {
		name := envPlaceholder.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", errors.Newf("unresolved environment placeholders: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// LoadRegistry reads the services configuration file, resolves environment
// placeholders, and returns a registry of the enabled descriptors in
// declaration order. Any load failure is startup-fatal at the caller.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read services config %s", path)
	}

	content, err := expandEnv(string(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve services config %s", path)
	}

	var doc servicesDocument
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse services config %s", path)
	}

	var enabled []Descriptor
	for _, svc := range doc.Services {
		if !svc.Enabled {
			continue
		}
		if svc.Name == "" {
			return nil, errors.Newf("service entry without a name in %s", path)
		}
		if !IsValidKind(string(svc.Kind)) {
			return nil, errors.Newf("service %s declares unknown backend kind %q", svc.Name, svc.Kind)
		}
		enabled = append(enabled, svc)
	}

	return NewRegistry(enabled), nil
}

// NewRegistry builds a registry from an explicit descriptor list. This is
// the injection point for isolated tests.
func NewRegistry(descriptors []Descriptor) *Registry {
	copied := make([]Descriptor, len(descriptors))
	copy(copied, descriptors)
	return &Registry{descriptors: copied}
}

// All returns the descriptors in declaration order. The returned slice is a
// copy; callers cannot mutate registry state through it.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Len returns the number of registered descriptors
func (r *Registry) Len() int {
	return len(r.descriptors)
}
