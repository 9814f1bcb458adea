package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appSource = `package app

type Config struct {
	Icon string ` + "`respath:\"base=assets\"`" + `
}

var Found = Config{Icon: "icon.png"}

var Missing = Config{Icon: "missing.png"}

//respath:path
const Page = "pages/" + "index.html"
`

func writeModule(t *testing.T, extra map[string]string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("runs the go command")
	}
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":           "module example.com/app\n\ngo 1.22\n",
		"app.go":           appSource,
		"assets/icon.png":  "png",
		"pages/index.html": "<html></html>",
	}
	for name, content := range extra {
		files[name] = content
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	t.Logf("stderr: %s", stderr.String())
	return stdout.String(), err
}

func TestCheck(t *testing.T) {
	dir := writeModule(t, nil)

	out, err := execute(t, "check", "-C", dir, "--format", "json")
	require.ErrorIs(t, err, ErrDiagnostics)

	var diags []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "assets/missing.png", diags[0]["path"])
	assert.Equal(t, "error", diags[0]["severity"])
	assert.Equal(t, "field Config.Icon", diags[0]["origin"])
}

func TestCheck_FailOn(t *testing.T) {
	dir := writeModule(t, nil)

	out, err := execute(t, "check", "-C", dir, "--severity", "warning", "--fail-on", "error")
	require.NoError(t, err)
	assert.Contains(t, out, `app.go:9:28: warning: missing resource file "assets/missing.png" (field Config.Icon)`)
	assert.Contains(t, out, "1 problem (1 warning)")
}

func TestCheck_ConfigFile(t *testing.T) {
	dir := writeModule(t, map[string]string{
		".respath.yaml": "severity: information\nfail-on: warning\n",
	})

	out, err := execute(t, "check", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "information: missing resource file")
}

func TestCheck_Clean(t *testing.T) {
	dir := writeModule(t, map[string]string{
		"assets/missing.png": "png",
	})

	out, err := execute(t, "check", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, "no problems\n", out)
}

func TestResolve(t *testing.T) {
	dir := writeModule(t, nil)

	out, err := execute(t, "resolve", "-C", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		`app.go:7:26: field Config.Icon base=assets: {"icon.png"}`,
		`app.go:9:28: field Config.Icon base=assets: {"missing.png"}`,
		`app.go:12:14: const Page: {"pages/index.html"}`,
	}, lines)
}

func TestResolve_At(t *testing.T) {
	dir := writeModule(t, nil)

	out, err := execute(t, "resolve", "-C", dir, "--at", "app.go:12", "--format", "json")
	require.NoError(t, err)

	var got []resolved
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"pages/index.html"}, got[0].Values)
}

func TestParseAt(t *testing.T) {
	match, err := parseAt("pkg/app.go:3")
	require.NoError(t, err)
	assert.True(t, match(filepath.Join("/src", "pkg", "app.go"), 3))
	assert.False(t, match(filepath.Join("/src", "pkg", "app.go"), 4))
	assert.False(t, match(filepath.Join("/src", "other.go"), 3))

	_, err = parseAt("app.go")
	assert.Error(t, err)
	_, err = parseAt("app.go:x")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "respath "), out)
}
