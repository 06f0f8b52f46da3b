// Package buildtree provides the identity types for builds and projects
// within a single build tree. Identities are small comparable values so
// they can key the per-build and per-project tables owned by the
// properties controller.
package buildtree

import "strings"

// PathSeparator separates segments in build and project paths.
const PathSeparator = ":"

// BuildID identifies a build within the build tree. The root build has
// path ":"; included builds have paths like ":included". A BuildID is
// stable for the lifetime of the build it names.
type BuildID struct {
	path string
}

// RootBuild returns the identity of the root build.
func RootBuild() BuildID {
	return BuildID{path: PathSeparator}
}

// NewBuildID returns the identity for the build at the given path.
// Paths are normalized to start with ":".
func NewBuildID(path string) BuildID {
	return BuildID{path: normalizePath(path)}
}

// Path returns the build path, e.g. ":" or ":included".
func (b BuildID) Path() string {
	return b.path
}

// IsRoot reports whether this is the root build of the tree.
func (b BuildID) IsRoot() bool {
	return b.path == PathSeparator
}

func (b BuildID) String() string {
	return b.path
}

// ProjectID identifies a project by its owning build and its path within
// that build, e.g. (":", ":app") or (":included", ":lib:core").
type ProjectID struct {
	build BuildID
	path  string
}

// NewProjectID returns the identity for the project at projectPath inside
// the given build.
func NewProjectID(build BuildID, projectPath string) ProjectID {
	return ProjectID{build: build, path: normalizePath(projectPath)}
}

// RootProject returns the identity of a build's root project.
func RootProject(build BuildID) ProjectID {
	return ProjectID{build: build, path: PathSeparator}
}

// Build returns the identity of the build that owns this project.
func (p ProjectID) Build() BuildID {
	return p.build
}

// Path returns the project path within its build, e.g. ":app".
func (p ProjectID) Path() string {
	return p.path
}

func (p ProjectID) String() string {
	if p.build.IsRoot() {
		return p.path
	}
	return p.build.path + p.path
}

func normalizePath(path string) string {
	if path == "" {
		return PathSeparator
	}
	if !strings.HasPrefix(path, PathSeparator) {
		return PathSeparator + path
	}
	return path
}
