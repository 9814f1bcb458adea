package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_TaggedFields(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

type Config struct {
	Icon string `+"`respath:\"base=assets\"`"+`
	Dir  string `+"`json:\"dir\" respath:\"dir\"`"+`
	Name string
}

type Wrapper struct {
	Config
}

const icons = "icons/"

func getName() string { return "plugin.xml" }

var a = Config{Icon: icons + "a.png", Name: "ignored"}

var b = &Config{Icon: getName()}

var c = []Config{{"positional.png", "", ""}}

func setup(c *Config, w *Wrapper, name string) {
	c.Icon = "icons/" + name
	c.Icon = "x.png"
	w.Dir = "templates"
	c.Name = "ignored"
}
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 7)
	assert.Equal(t, [][]string{
		{"icons/a.png"},
		{"plugin.xml"},
		{"positional.png"},
		{""}, // Dir, positional
		{},
		{"x.png"},
		{"templates"},
	}, normalize(resolved(a)))

	icon := a.Targets[0].Marker
	assert.Equal(t, "assets", icon.Base)
	assert.False(t, icon.Dir)
	assert.Equal(t, "field Config.Icon", icon.Origin)
	assert.Same(t, icon, a.Targets[1].Marker)
	assert.Same(t, icon, a.Targets[4].Marker)

	dir := a.Targets[6].Marker
	assert.True(t, dir.Dir)
	assert.Equal(t, "", dir.Base)
	assert.Equal(t, token.NoPos, dir.BasePos)
	assert.Equal(t, "field Config.Dir", dir.Origin)

	assert.Len(t, a.Markers(), 2)
}

func TestAnalyze_Directives(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

import "strings"

// Load reads a resource.
//
//respath:param name base=assets
func Load(name string) string { return name }

//respath:param names
func LoadAll(prefix string, names ...string) {}

//respath:result base=templates dir
func templateDir(debug bool) string {
	if debug {
		return "debug"
	}
	f := func() string { return "ignored" }
	_ = f
	return "release"
}

//respath:path
const logo = "logo.svg"

var (
	//respath:path base=assets
	banner = strings.ToLower(strings.TrimSpace("  Banner.PNG  "))
	other  = "other"
)

func names(b bool) string {
	if b {
		return "a"
	}
	return "b"
}

func use() {
	Load(names(true) + ".png")
	LoadAll("p", "a.txt", "b.txt")
	xs := []string{"c.txt"}
	LoadAll("p", xs...)
}
`)
	a := p.analyze(t)

	byOrigin := map[string][][]string{}
	for _, target := range a.Targets {
		byOrigin[target.Marker.Origin] = append(byOrigin[target.Marker.Origin], values(target))
	}
	assert.Equal(t, map[string][][]string{
		"param name of Load":     {{"a.png", "b.png"}},
		"param names of LoadAll": {{"a.txt"}, {"b.txt"}},
		"result of templateDir":  {{"debug"}, {"release"}},
		"const logo":             {{"logo.svg"}},
		"var banner":             {{"banner.png"}},
	}, byOrigin)

	for _, target := range a.Targets {
		m := target.Marker
		switch m.Origin {
		case "param name of Load":
			assert.Equal(t, "assets", m.Base)
			pos := p.fset.Position(m.BasePos)
			assert.Equal(t, len("//respath:param name base=")+1, pos.Column)
		case "result of templateDir":
			assert.Equal(t, "templates", m.Base)
			assert.True(t, m.Dir)
		case "param names of LoadAll":
			assert.Equal(t, token.NoPos, m.BasePos)
		}
	}
}

func TestAnalyze_MarkerCalls(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

import rp "github.com/podhmo/respath"

type Icon string

func open(name string) string { return rp.Path(name) }

func use() string {
	a := rp.Path("a.txt", rp.Base("assets/"), rp.Dir())
	base := "dynamic"
	b := rp.Path("b.txt", rp.Base(base))
	c := rp.Path(Icon("c.png"))
	return a + b + string(c)
}
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 3)
	assert.Equal(t, [][]string{{}, {"a.txt"}, {"c.png"}}, normalize(resolved(a)))

	m := a.Targets[1].Marker
	assert.Equal(t, "assets", m.Base)
	assert.True(t, m.Dir)
	assert.NotEqual(t, token.NoPos, m.BasePos)
	assert.Equal(t, "respath.Path call", m.Origin)
}

func TestAnalyze_EnumConstructors(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/status", `package status

type Status struct {
	path string
}

//respath:param path base=resources
func newStatus(path string) Status { return Status{path: path} }

var OK = newStatus("plugin.xml")

//respath:result base=resources
func okPath() string { return OK.path }
`)
	p.add(t, "example.com/app", `package app

import "example.com/status"

//respath:param name
func Use(name string) {}

var _ = status.OK
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 2)
	assert.Equal(t, "param path of newStatus", a.Targets[0].Marker.Origin)
	assert.Equal(t, []string{"plugin.xml"}, values(a.Targets[0]))
	assert.Equal(t, "result of okPath", a.Targets[1].Marker.Origin)
	assert.Equal(t, []string{"plugin.xml"}, values(a.Targets[1]))
}

func TestAnalyze_CrossPackageParams(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/res", `package res

//respath:param name base=assets
func Open(name string) string { return name }

type Loader struct{}

//respath:param name
func (l *Loader) Load(name string) {}
`)
	p.add(t, "example.com/app", `package app

import "example.com/res"

const prefix = "img/"

func run(l *res.Loader) {
	res.Open(prefix + "logo.png")
	l.Load("data.json")
}
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 2)
	assert.Equal(t, []string{"img/logo.png"}, values(a.Targets[0]))
	assert.Equal(t, "assets", a.Targets[0].Marker.Base)
	assert.Equal(t, []string{"data.json"}, values(a.Targets[1]))
	assert.Equal(t, "param name of (*Loader).Load", a.Targets[1].Marker.Origin)
}

func TestAnalyze_Immutability(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

var changing = "a.txt"

var fixed = "b.txt"

func init() { changing = "c.txt" }

//respath:param p
func use(p string) {}

func run() {
	use(changing)
	use(fixed)
	name := "d"
	ptr := &name
	_ = ptr
	use(name + ".txt")
}
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 3)
	assert.Equal(t, [][]string{{}, {"b.txt"}, {}}, normalize(resolved(a)))
}

func TestAnalyze_PointerMethodMutation(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

type Status struct{ icon string }

func newStatus(icon string) *Status {
	s := &Status{}
	s.icon = icon
	return s
}

func (s *Status) SetIcon(p string) { s.icon = p }

var OK = newStatus("a.png")

var Fixed = newStatus("c.png")

func init() { OK.SetIcon("b.png") }

//respath:param p
func use(p string) {}

func run() {
	use(OK.icon)
	use(Fixed.icon)
}
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 2)
	assert.Equal(t, [][]string{{}, {"c.png"}}, normalize(resolved(a)))
}

func TestAnalyze_OverwrittenField(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

type Status struct{ icon string }

func newStatus(icon string) *Status {
	s := &Status{}
	s.icon = icon
	s.icon = "icons/" + icon
	return s
}

var OK = newStatus("a.png")

//respath:param p
func use(p string) {}

func run() { use(OK.icon) }
`)
	a := p.analyze(t)

	require.Len(t, a.Targets, 1)
	assert.Equal(t, [][]string{{}}, normalize(resolved(a)))
}

func TestAnalyze_BadMarkers(t *testing.T) {
	p := newProgram(t)
	p.add(t, "example.com/app", `package app

//respath:param missing
func a(name string) {}

//respath:unknown
func b(name string) {}

//respath:param name bogus
func c(name string) {}

func run() {
	a("a")
	b("b")
	c("c")
}
`)
	a := p.analyze(t)

	// unknown options are ignored, the marker stays
	require.Len(t, a.Targets, 1)
	assert.Equal(t, []string{"c"}, values(a.Targets[0]))
}

func TestAnalyze_NilFileSet(t *testing.T) {
	_, err := Analyze(nil, nil)
	assert.Error(t, err)
}

// normalize turns nil value lists into empty ones so unresolved targets
// compare equal to {}.
func TestIsMarked(t *testing.T) {
	src := `package app

import rp "github.com/podhmo/respath"

type Config struct {
	Icon  string ` + "`respath:\"base=assets\"`" + `
	Title string ` + "`json:\"title\"`" + `
}

//respath:param name
func Load(name string) {}

// Plain does nothing.
func Plain() {}

//respath:path
var Page = "index.html"

var (
	//respath:path dir
	Dir = "templates"
	Other = "other"
)

var x = rp.Path("x.txt")
var y = strings.ToLower("y")
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "app.go", src, parser.ParseComments)
	require.NoError(t, err)

	var got []string
	ast.Inspect(f, func(n ast.Node) bool {
		if n != nil && IsMarked(f, n) {
			got = append(got, fmt.Sprintf("%T:%d", n, fset.Position(n.Pos()).Line))
		}
		return true
	})
	assert.Equal(t, []string{
		"*ast.Field:6",
		"*ast.FuncDecl:11",
		"*ast.GenDecl:17",
		"*ast.ValueSpec:21",
		"*ast.CallExpr:25",
	}, got)
}

func normalize(in [][]string) [][]string {
	for i, v := range in {
		if v == nil {
			in[i] = []string{}
		}
	}
	return in
}
