package properties

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"buildnerd/internal/env"
)

// StartParameters carries the invocation-scoped inputs to property
// resolution: -P project properties, -D system-property definitions and
// the user home directory holding the user-level properties file.
type StartParameters struct {
	ProjectProperties    map[string]string
	SystemPropertiesArgs map[string]string
	UserHomeDir          string
}

// loader assembles the file-sourced defaults and the override layer for a
// build. It performs no caching; the controller decides when to (re)load.
type loader struct {
	env    env.Environment
	start  StartParameters
	logger *zap.Logger
}

// loadBuildProperties reads the user-home and build-root properties files
// and merges them into the defaults layer, the build-root file winning on
// key collision. Missing files contribute nothing.
func (l *loader) loadBuildProperties(rootDir string) (*valueSet, error) {
	defaults := make(map[string]string)

	if l.start.UserHomeDir != "" {
		home, err := l.env.PropertiesFile(filepath.Join(l.start.UserHomeDir, FileName))
		if err != nil {
			return nil, err
		}
		for k, v := range home {
			defaults[k] = v
		}
	}

	root, err := l.env.PropertiesFile(filepath.Join(rootDir, FileName))
	if err != nil {
		return nil, err
	}
	for k, v := range root {
		defaults[k] = v
	}

	l.logger.Debug("loaded build properties files",
		zap.String("root_dir", rootDir),
		zap.Int("count", len(defaults)))
	return newValueSet(defaults), nil
}

// loadOverrides assembles the build-tree override layer. Sources are
// applied lowest to highest: prefixed environment variables, prefixed
// system properties, then -P command-line properties.
func (l *loader) loadOverrides() map[string]string {
	overrides := make(map[string]string)
	for name, value := range l.env.VariablesByPrefix(EnvVarPrefix) {
		if key := strings.TrimPrefix(name, EnvVarPrefix); key != "" {
			overrides[key] = value
		}
	}
	for name, value := range l.env.SystemPropertiesByPrefix(SystemPropPrefix) {
		if key := strings.TrimPrefix(name, SystemPropPrefix); key != "" {
			overrides[key] = value
		}
	}
	for key, value := range l.start.ProjectProperties {
		overrides[key] = value
	}
	return overrides
}

// loadProjectProperties reads a project directory's local properties
// file. A missing file yields an empty mapping.
func (l *loader) loadProjectProperties(projectDir string) (map[string]string, error) {
	local, err := l.env.PropertiesFile(filepath.Join(projectDir, FileName))
	if err != nil {
		return nil, err
	}
	return local, nil
}
