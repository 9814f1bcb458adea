// Package config holds the settings of a respath run: resource roots,
// severities and output format. Settings come from defaults, an optional
// .respath.yaml at the module root and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/podhmo/respath/internal/metadata"
)

// FileName is the config file looked up at the module root.
const FileName = ".respath.yaml"

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidFormat is returned for an output format other than text or json.
var ErrInvalidFormat = errors.New("invalid format")

// Config holds the configuration for a check.
type Config struct {
	Roots        []string          // doublestar patterns relative to the module root
	Exclude      []string          // doublestar patterns of directories not used as roots
	Severity     metadata.Severity // severity of missing resources
	BaseSeverity metadata.Severity // severity of invalid base directories
	FailOn       metadata.Severity // check fails when a diagnostic is at least this severe
	Concurrency  int               // 0 means GOMAXPROCS
	Tests        bool              // analyze _test.go files too
	Format       string            // FormatText or FormatJSON
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Roots:        []string{"."},
		Severity:     metadata.SeverityError,
		BaseSeverity: metadata.SeverityError,
		FailOn:       metadata.SeverityError,
		Format:       FormatText,
	}
}

// file mirrors the YAML layout. Pointers tell unset keys from zero values.
type file struct {
	Roots        []string `yaml:"roots"`
	Exclude      []string `yaml:"exclude"`
	Severity     *string  `yaml:"severity"`
	BaseSeverity *string  `yaml:"base-severity"`
	FailOn       *string  `yaml:"fail-on"`
	Concurrency  *int     `yaml:"concurrency"`
	Tests        *bool    `yaml:"tests"`
	Format       *string  `yaml:"format"`
}

// Load returns the defaults overridden by dir/.respath.yaml when that file exists.
func Load(dir string) (*Config, error) {
	c := Default()
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := c.Decode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("path", path).Debug("respath: config file loaded")
	return c, nil
}

// Decode applies YAML settings on top of c.
func (c *Config) Decode(data []byte) error {
	var f file
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if f.Roots != nil {
		c.Roots = f.Roots
	}
	if f.Exclude != nil {
		c.Exclude = f.Exclude
	}
	if f.Severity != nil {
		c.Severity = severity("severity", *f.Severity)
	}
	if f.BaseSeverity != nil {
		c.BaseSeverity = severity("base-severity", *f.BaseSeverity)
	}
	if f.FailOn != nil {
		c.FailOn = severity("fail-on", *f.FailOn)
	}
	if f.Concurrency != nil {
		c.Concurrency = *f.Concurrency
	}
	if f.Tests != nil {
		c.Tests = *f.Tests
	}
	if f.Format != nil {
		c.Format = *f.Format
	}
	return c.Validate()
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w %q (want %s or %s)", ErrInvalidFormat, c.Format, FormatText, FormatJSON)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if len(c.Roots) == 0 {
		c.Roots = []string{"."}
	}
	return nil
}

// severity parses name, an unknown name is logged and becomes weak-warning.
func severity(key, name string) metadata.Severity {
	s, err := metadata.ParseSeverity(name)
	if err != nil {
		log.WithField("key", key).Warnf("respath: %v, using %s", err, s)
	}
	return s
}

// Flags are the command-line counterparts of the config file keys.
type Flags struct {
	Roots        []string
	Exclude      []string
	Severity     string
	BaseSeverity string
	FailOn       string
	Concurrency  int
	Tests        bool
	Format       string
}

// Register defines the flags on fs.
func (fl *Flags) Register(fs *pflag.FlagSet) {
	d := Default()
	fs.StringSliceVar(&fl.Roots, "roots", d.Roots, "resource roots, doublestar patterns relative to the module root")
	fs.StringSliceVar(&fl.Exclude, "exclude", nil, "doublestar patterns of directories never used as roots")
	fs.StringVar(&fl.Severity, "severity", d.Severity.String(), "severity of missing resources ("+severityList()+")")
	fs.StringVar(&fl.BaseSeverity, "base-severity", d.BaseSeverity.String(), "severity of invalid base directories")
	fs.StringVar(&fl.FailOn, "fail-on", d.FailOn.String(), "exit with status 1 when a diagnostic is at least this severe")
	fs.IntVar(&fl.Concurrency, "concurrency", 0, "resolutions running at once (0: GOMAXPROCS)")
	fs.BoolVar(&fl.Tests, "tests", false, "analyze _test.go files")
	fs.StringVar(&fl.Format, "format", d.Format, "output format (text or json)")
}

// Apply copies the flags set explicitly on fs into c.
func (fl *Flags) Apply(fs *pflag.FlagSet, c *Config) error {
	if fs.Changed("roots") {
		c.Roots = fl.Roots
	}
	if fs.Changed("exclude") {
		c.Exclude = fl.Exclude
	}
	if fs.Changed("severity") {
		c.Severity = severity("severity", fl.Severity)
	}
	if fs.Changed("base-severity") {
		c.BaseSeverity = severity("base-severity", fl.BaseSeverity)
	}
	if fs.Changed("fail-on") {
		c.FailOn = severity("fail-on", fl.FailOn)
	}
	if fs.Changed("concurrency") {
		c.Concurrency = fl.Concurrency
	}
	if fs.Changed("tests") {
		c.Tests = fl.Tests
	}
	if fs.Changed("format") {
		c.Format = fl.Format
	}
	return c.Validate()
}

func severityList() string {
	names := make([]string, len(metadata.Severities))
	for i, s := range metadata.Severities {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
