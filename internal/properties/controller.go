package properties

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"buildnerd/internal/buildtree"
	"buildnerd/internal/env"
	"buildnerd/internal/sysprops"
)

// Controller is the single authority for property visibility across a
// build tree. It owns the per-build and per-project state tables and
// enforces the lifecycle rules:
//
//   - reading through a handle before the corresponding load fails with
//     ErrNotLoaded;
//   - loading a build twice from the same root directory is a no-op;
//   - loading a build from a different root directory fails with
//     ErrRootDirMismatch until the build is unloaded.
//
// Load and unload take the write lock; handle reads take the read lock,
// so reads are safe from any goroutine once loaded.
type Controller struct {
	mu        sync.RWMutex
	loader    *loader
	installer SystemPropertyInstaller
	logger    *zap.Logger

	builds   map[buildtree.BuildID]*buildState
	projects map[buildtree.ProjectID]staticValues
}

type buildState struct {
	rootDir string
	values  *valueSet
}

// NewController creates a controller reading through environment with the
// given start parameters. A nil installer defaults to one writing to the
// process-wide system-property store; a nil logger defaults to a nop
// logger. The controller is scoped to one build tree: construct it at
// build-tree start and discard it with the tree.
func NewController(environment env.Environment, start StartParameters, installer SystemPropertyInstaller, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if installer == nil {
		installer = NewInstaller(sysprops.Process(), start.SystemPropertiesArgs, logger)
	}
	return &Controller{
		loader:    &loader{env: environment, start: start, logger: logger},
		installer: installer,
		logger:    logger,
		builds:    make(map[buildtree.BuildID]*buildState),
		projects:  make(map[buildtree.ProjectID]staticValues),
	}
}

// BuildProperties returns the read handle for a build's properties. The
// handle can be obtained and retained before the build is loaded; reads
// resolve against current controller state on every call.
func (c *Controller) BuildProperties(id buildtree.BuildID) Properties {
	return &buildHandle{controller: c, id: id}
}

// ProjectProperties returns the read handle for a project's properties.
func (c *Controller) ProjectProperties(id buildtree.ProjectID) Properties {
	return &projectHandle{controller: c, id: id}
}

// LoadBuildProperties loads the build's properties from rootDir. Repeated
// calls with a value-equal rootDir are no-ops: no file is re-read and no
// system property is re-installed. A call with a different rootDir fails
// with ErrRootDirMismatch. When setSystemProperties is true, the fully
// merged property set is handed to the installer once.
func (c *Controller) LoadBuildProperties(id buildtree.BuildID, rootDir string, setSystemProperties bool) error {
	rootDir = filepath.Clean(rootDir)

	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.builds[id]; ok {
		if state.rootDir == rootDir {
			return nil
		}
		return fmt.Errorf("build %s is bound to root directory %q, cannot load from %q: %w",
			id, state.rootDir, rootDir, ErrRootDirMismatch)
	}

	values, err := c.loader.loadBuildProperties(rootDir)
	if err != nil {
		return err
	}
	values.setOverrides(c.loader.loadOverrides())

	if setSystemProperties {
		c.installer.Install(values.asMap())
	}

	c.builds[id] = &buildState{rootDir: rootDir, values: values}
	c.logger.Info("build properties loaded",
		zap.Stringer("build", id),
		zap.String("root_dir", rootDir),
		zap.Bool("system_properties", setSystemProperties))
	return nil
}

// UnloadBuildProperties resets the build to the not-loaded state. Any
// outstanding handle for the build fails with ErrNotLoaded until a
// subsequent load, which re-reads all sources and re-evaluates system
// property installation.
func (c *Controller) UnloadBuildProperties(id buildtree.BuildID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.builds[id]; !ok {
		return
	}
	delete(c.builds, id)
	c.logger.Info("build properties unloaded", zap.Stringer("build", id))
}

// LoadProjectProperties loads the project-local properties file from
// projectDir and merges it over the owning build's properties, the local
// file winning against file-sourced build values but losing to the
// build's override layer. A missing file is an empty overlay. The owning
// build's properties must already be loaded. System properties are never
// installed from project-scoped sources. Repeated calls replace the
// project's view.
func (c *Controller) LoadProjectProperties(id buildtree.ProjectID, projectDir string) error {
	local, err := c.loader.loadProjectProperties(projectDir)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.builds[id.Build()]
	if !ok {
		return fmt.Errorf("project %s: owning build %s: %w", id, id.Build(), ErrNotLoaded)
	}

	c.projects[id] = state.values.mergeLocal(local)
	c.logger.Debug("project properties loaded",
		zap.Stringer("project", id),
		zap.String("project_dir", projectDir),
		zap.Int("local_count", len(local)))
	return nil
}

// buildHandle is a thin proxy over controller-held build state.
type buildHandle struct {
	controller *Controller
	id         buildtree.BuildID
}

func (h *buildHandle) Find(key string) (string, bool, error) {
	h.controller.mu.RLock()
	defer h.controller.mu.RUnlock()

	state, ok := h.controller.builds[h.id]
	if !ok {
		return "", false, fmt.Errorf("build %s: %w", h.id, ErrNotLoaded)
	}
	value, found := state.values.find(key)
	return value, found, nil
}

func (h *buildHandle) AsMap() (map[string]string, error) {
	h.controller.mu.RLock()
	defer h.controller.mu.RUnlock()

	state, ok := h.controller.builds[h.id]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", h.id, ErrNotLoaded)
	}
	return state.values.asMap(), nil
}

// projectHandle is a thin proxy over controller-held project state.
type projectHandle struct {
	controller *Controller
	id         buildtree.ProjectID
}

func (h *projectHandle) Find(key string) (string, bool, error) {
	h.controller.mu.RLock()
	defer h.controller.mu.RUnlock()

	values, ok := h.controller.projects[h.id]
	if !ok {
		return "", false, fmt.Errorf("project %s: %w", h.id, ErrNotLoaded)
	}
	value, found := values.find(key)
	return value, found, nil
}

func (h *projectHandle) AsMap() (map[string]string, error) {
	h.controller.mu.RLock()
	defer h.controller.mu.RUnlock()

	values, ok := h.controller.projects[h.id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", h.id, ErrNotLoaded)
	}
	return values.asMap(), nil
}
