package resource

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T, files ...string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for _, name := range files {
		if name[len(name)-1] == '/' {
			require.NoError(t, fs.MkdirAll(name, 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(fs, name, []byte("x"), 0o644))
	}
	return fs
}

func TestFinder_Exists(t *testing.T) {
	fs := newTestFS(t,
		"/assets/icons/a.png",
		"/assets/b.txt",
		"/templates/",
	)
	f, err := NewFinder(fs, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, f.Roots())

	testCases := []struct {
		name      string
		path      string
		expectDir bool
		expected  bool
	}{
		{"file", "assets/b.txt", false, true},
		{"nested file", "assets/icons/a.png", false, true},
		{"directory", "templates", true, true},
		{"directory expected file", "templates", false, false},
		{"file expected directory", "assets/b.txt", true, false},
		{"missing", "assets/missing.png", false, false},
		{"blank", "", false, true},
		{"spaces", "   ", true, true},
		{"backslashes", `assets\icons\a.png`, false, true},
		{"leading slash", "/assets/b.txt", false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, f.Exists(tc.path, tc.expectDir))
		})
	}
}

func TestFinder_GlobRoots(t *testing.T) {
	fs := newTestFS(t,
		"/src/main/resources/plugin.xml",
		"/src/main/resources/dup",
		"/src/test/resources/test.xml",
		"/src/test/resources/dup/",
		"/node_modules/x/resources/vendored.xml",
	)

	t.Run("single star", func(t *testing.T) {
		f, err := NewFinder(fs, []string{"src/*/resources"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"src/main/resources", "src/test/resources"}, f.Roots())
		assert.True(t, f.Exists("plugin.xml", false))
		assert.True(t, f.Exists("test.xml", false))
		assert.False(t, f.Exists("vendored.xml", false))
	})

	t.Run("first root decides", func(t *testing.T) {
		f, err := NewFinder(fs, []string{"src/*/resources"}, nil)
		require.NoError(t, err)
		assert.True(t, f.Exists("dup", false))
		assert.False(t, f.Exists("dup", true))
	})

	t.Run("double star with exclude", func(t *testing.T) {
		f, err := NewFinder(fs, []string{"**/resources"}, []string{"node_modules"})
		require.NoError(t, err)
		assert.Equal(t, []string{"src/main/resources", "src/test/resources"}, f.Roots())
		assert.False(t, f.Exists("vendored.xml", false))
	})

	t.Run("literal root is kept", func(t *testing.T) {
		f, err := NewFinder(fs, []string{"./missing/", "missing"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"missing"}, f.Roots())
		assert.False(t, f.Exists("plugin.xml", false))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewFinder(fs, []string{"src/[resources"}, nil)
		assert.Error(t, err)
	})
}
