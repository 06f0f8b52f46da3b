// Package env abstracts the sources the properties subsystem reads from:
// properties files on disk, environment variables, and the process
// system-property table. The controller and loaders depend only on the
// Environment interface so tests can substitute in-memory fakes.
package env

import (
	"fmt"
	"os"
	"strings"

	"buildnerd/internal/sysprops"
)

// Environment provides raw key-value sources for property resolution.
type Environment interface {
	// PropertiesFile reads the flat properties file at path. A missing
	// file yields a nil map and no error.
	PropertiesFile(path string) (map[string]string, error)

	// VariablesByPrefix returns the environment variables whose name
	// starts with prefix, keyed by the full variable name.
	VariablesByPrefix(prefix string) map[string]string

	// SystemPropertiesByPrefix returns the system properties whose name
	// starts with prefix, keyed by the full property name.
	SystemPropertiesByPrefix(prefix string) map[string]string
}

// OS is the Environment backed by the real filesystem, os.Environ and a
// system-property store.
type OS struct {
	SysProps *sysprops.Store
}

// NewOS returns an OS environment reading system properties from the
// process-wide store.
func NewOS() *OS {
	return &OS{SysProps: sysprops.Process()}
}

func (e *OS) PropertiesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read properties file %s: %w", path, err)
	}
	return ParseProperties(string(data)), nil
}

func (e *OS) VariablesByPrefix(prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		out[name] = value
	}
	return out
}

func (e *OS) SystemPropertiesByPrefix(prefix string) map[string]string {
	return e.SysProps.ByPrefix(prefix)
}

// ParseProperties parses flat key=value text. Lines starting with '#' or
// '!' are comments; blank lines are skipped; whitespace around keys and
// values is trimmed. Lines without '=' are ignored. The full escape rules
// of the Java-style format are out of scope here.
func ParseProperties(content string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		props[key] = strings.TrimSpace(value)
	}
	return props
}
