// Package properties implements the build-tree properties subsystem: the
// lifecycle controller, the file/override loaders, and the system-property
// installer. Build-scoped properties are resolved once per build from
// properties files plus environment, system-property and command-line
// overrides; project-scoped properties layer a project-local file on top
// of the owning build's resolved set.
package properties

import "errors"

const (
	// FileName is the properties file read from the user home, build root
	// and project directories.
	FileName = "buildnerd.properties"

	// EnvVarPrefix marks environment variables that feed the override
	// layer, e.g. BUILDNERD_PROJECT_version=1.2 sets "version".
	EnvVarPrefix = "BUILDNERD_PROJECT_"

	// SystemPropPrefix marks system properties that feed the override
	// layer, e.g. buildnerd.project.version=1.2 sets "version".
	SystemPropPrefix = "buildnerd.project."

	// SystemPropMarker marks file entries that are installed as
	// process-wide system properties, e.g. systemProp.http.proxyHost.
	SystemPropMarker = "systemProp."
)

var (
	// ErrNotLoaded reports a read before the corresponding load, or a
	// project load before its owning build's load. It signals lifecycle
	// misuse by the caller, not a missing value.
	ErrNotLoaded = errors.New("properties have not been loaded")

	// ErrRootDirMismatch reports an attempt to load a build's properties
	// from a different root directory than the one it was loaded from.
	// A build's root directory is immutable until the build is unloaded.
	ErrRootDirMismatch = errors.New("build properties already loaded from a different root directory")
)

// Properties is a read view over a loaded property set. Handles returned
// by the controller resolve against current controller state on every
// call: a handle obtained before loading starts working once the load
// happens, and fails again after an unload. Absent keys are reported via
// the bool, never as an error.
type Properties interface {
	// Find returns the value for key. The error is non-nil only when the
	// underlying properties are not in the loaded state.
	Find(key string) (value string, found bool, err error)

	// AsMap returns a copy of the full resolved property set.
	AsMap() (map[string]string, error)
}

// valueSet is the build-scoped backing store. File-sourced values live in
// the defaults layer; environment, system-property and command-line
// values live in the overrides layer, which wins on collision. The
// controller serializes all mutation; valueSet itself is not locked.
type valueSet struct {
	defaults  map[string]string
	overrides map[string]string
}

func newValueSet(defaults map[string]string) *valueSet {
	s := &valueSet{
		defaults:  make(map[string]string, len(defaults)),
		overrides: make(map[string]string),
	}
	for k, v := range defaults {
		s.defaults[k] = v
	}
	return s
}

func (s *valueSet) find(key string) (string, bool) {
	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	v, ok := s.defaults[key]
	return v, ok
}

func (s *valueSet) asMap() map[string]string {
	out := make(map[string]string, len(s.defaults)+len(s.overrides))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// setOverrides replaces the override layer.
func (s *valueSet) setOverrides(overrides map[string]string) {
	s.overrides = make(map[string]string, len(overrides))
	for k, v := range overrides {
		s.overrides[k] = v
	}
}

// mergeLocal returns a new immutable property set layering local between
// the defaults and the overrides: overrides > local > defaults. The
// receiver is not modified, so project merges never contaminate the
// build-scoped set or each other.
func (s *valueSet) mergeLocal(local map[string]string) staticValues {
	out := make(map[string]string, len(s.defaults)+len(local)+len(s.overrides))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// staticValues is an immutable resolved property set, used for
// project-scoped views.
type staticValues map[string]string

func (v staticValues) find(key string) (string, bool) {
	val, ok := v[key]
	return val, ok
}

func (v staticValues) asMap() map[string]string {
	out := make(map[string]string, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
