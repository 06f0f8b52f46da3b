package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildnerd/internal/sysprops"
)

func TestParseProperties(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{
			name:    "simple pairs",
			content: "one=1\ntwo=2",
			want:    map[string]string{"one": "1", "two": "2"},
		},
		{
			name:    "comments and blanks",
			content: "# comment\n! also comment\n\nkey=value\n",
			want:    map[string]string{"key": "value"},
		},
		{
			name:    "whitespace trimmed",
			content: "  spaced  =  padded value  ",
			want:    map[string]string{"spaced": "padded value"},
		},
		{
			name:    "value may contain equals",
			content: "url=http://example.com?a=b",
			want:    map[string]string{"url": "http://example.com?a=b"},
		},
		{
			name:    "empty value kept",
			content: "empty=",
			want:    map[string]string{"empty": ""},
		},
		{
			name:    "lines without separator ignored",
			content: "not a property\nok=yes",
			want:    map[string]string{"ok": "yes"},
		},
		{
			name:    "later entry wins",
			content: "dup=first\ndup=second",
			want:    map[string]string{"dup": "second"},
		},
		{
			name:    "empty key ignored",
			content: "=orphan",
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProperties(tt.content))
		})
	}
}

func TestOSPropertiesFile(t *testing.T) {
	e := NewOS()

	t.Run("missing file is absent, not an error", func(t *testing.T) {
		props, err := e.PropertiesFile(filepath.Join(t.TempDir(), "nope.properties"))
		require.NoError(t, err)
		assert.Nil(t, props)
	})

	t.Run("existing file is parsed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "buildnerd.properties")
		require.NoError(t, os.WriteFile(path, []byte("a=1\n# note\nb=2\n"), 0644))

		props, err := e.PropertiesFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, props)
	})
}

func TestOSVariablesByPrefix(t *testing.T) {
	t.Setenv("BUILDNERD_PROJECT_alpha", "a")
	t.Setenv("BUILDNERD_PROJECT_beta", "b")
	t.Setenv("BUILDNERD_OTHER", "x")

	e := NewOS()
	got := e.VariablesByPrefix("BUILDNERD_PROJECT_")
	assert.Equal(t, map[string]string{
		"BUILDNERD_PROJECT_alpha": "a",
		"BUILDNERD_PROJECT_beta":  "b",
	}, got)
}

func TestOSSystemPropertiesByPrefix(t *testing.T) {
	store := sysprops.NewStore()
	store.Set("buildnerd.project.gamma", "g")
	store.Set("other.prop", "o")

	e := &OS{SysProps: store}
	got := e.SystemPropertiesByPrefix("buildnerd.project.")
	assert.Equal(t, map[string]string{"buildnerd.project.gamma": "g"}, got)
}
