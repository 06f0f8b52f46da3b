package buildtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildID(t *testing.T) {
	t.Run("root build", func(t *testing.T) {
		root := RootBuild()
		assert.True(t, root.IsRoot())
		assert.Equal(t, ":", root.Path())
		assert.Equal(t, ":", root.String())
	})

	t.Run("included build", func(t *testing.T) {
		b := NewBuildID(":included")
		assert.False(t, b.IsRoot())
		assert.Equal(t, ":included", b.Path())
	})

	t.Run("path normalization", func(t *testing.T) {
		assert.Equal(t, NewBuildID(":included"), NewBuildID("included"))
		assert.Equal(t, RootBuild(), NewBuildID(""))
	})

	t.Run("value equality and map keys", func(t *testing.T) {
		m := map[BuildID]string{}
		m[RootBuild()] = "root"
		m[NewBuildID(":included")] = "included"
		assert.Equal(t, "root", m[NewBuildID(":")])
		assert.Equal(t, "included", m[NewBuildID(":included")])
		assert.NotEqual(t, RootBuild(), NewBuildID(":other"))
	})
}

func TestProjectID(t *testing.T) {
	t.Run("project in root build", func(t *testing.T) {
		p := NewProjectID(RootBuild(), ":app")
		assert.Equal(t, RootBuild(), p.Build())
		assert.Equal(t, ":app", p.Path())
		assert.Equal(t, ":app", p.String())
	})

	t.Run("project in included build", func(t *testing.T) {
		p := NewProjectID(NewBuildID(":included"), ":lib:core")
		assert.Equal(t, ":included:lib:core", p.String())
	})

	t.Run("root project", func(t *testing.T) {
		p := RootProject(RootBuild())
		assert.Equal(t, ":", p.Path())
	})

	t.Run("distinct across builds", func(t *testing.T) {
		a := NewProjectID(RootBuild(), ":app")
		b := NewProjectID(NewBuildID(":included"), ":app")
		assert.NotEqual(t, a, b)

		m := map[ProjectID]int{a: 1, b: 2}
		assert.Equal(t, 1, m[NewProjectID(RootBuild(), ":app")])
		assert.Equal(t, 2, m[NewProjectID(NewBuildID(":included"), ":app")])
	})
}
