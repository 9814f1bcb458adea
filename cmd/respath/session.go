package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/podhmo/respath/internal/analyzer"
	"github.com/podhmo/respath/internal/checker"
	"github.com/podhmo/respath/internal/config"
	"github.com/podhmo/respath/internal/loader"
	"github.com/podhmo/respath/internal/metadata"
	"github.com/podhmo/respath/internal/resource"
)

// session is one load-analyze-check pass over a module.
type session struct {
	Config   *config.Config
	Module   *loader.Module
	Loaded   *loader.Result
	Analysis *analyzer.Analysis
}

// configure reads the module's config file and applies explicitly set flags.
func configure(g *globalOptions, fl *config.Flags, fs *pflag.FlagSet) (*config.Config, *loader.Module, error) {
	mod, err := loader.ReadModule(g.Dir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(mod.Dir)
	if err != nil {
		return nil, nil, err
	}
	if err := fl.Apply(fs, cfg); err != nil {
		return nil, nil, err
	}
	return cfg, mod, nil
}

// analyze loads patterns and collects their targets.
func analyze(ctx context.Context, g *globalOptions, cfg *config.Config, mod *loader.Module, patterns []string) (*session, error) {
	res, err := loader.Load(ctx, loader.Config{Dir: g.Dir, Tests: cfg.Tests}, patterns...)
	if err != nil {
		return nil, err
	}
	a, err := analyzer.Analyze(res.Fset, res.Units)
	if err != nil {
		return nil, err
	}
	return &session{Config: cfg, Module: mod, Loaded: res, Analysis: a}, nil
}

// check analyzes patterns and checks every target against the resource roots.
func (s *session) check(ctx context.Context) ([]*metadata.Diagnostic, error) {
	finder, err := resource.NewOSFinder(s.Module.Dir, s.Config.Roots, s.Config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("resource roots: %w", err)
	}
	c := checker.New(s.Loaded.Fset, finder, checker.Options{
		Severity:     s.Config.Severity,
		BaseSeverity: s.Config.BaseSeverity,
		Concurrency:  s.Config.Concurrency,
	})
	return c.Check(ctx, s.Analysis.Targets)
}
