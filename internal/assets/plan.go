package assets

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

// Step is one directive of a build, named by its effect.
type Step struct {
	Name   string
	Detail string
}

func (s Step) String() string {
	if s.Detail == "" {
		return s.Name
	}
	return s.Name + ": " + s.Detail
}

// Plan lists the directives Build applies, in the order they take effect.
func (p *Pipeline) Plan() []Step {
	cfg := p.config
	opt := cfg.Optimization

	var steps []Step
	add := func(name, format string, args ...any) {
		steps = append(steps, Step{Name: name, Detail: fmt.Sprintf(format, args...)})
	}

	if opt.Clean {
		add("clean", "%s", p.relativeToBase(p.outdir))
	}

	for _, key := range slices.Sorted(maps.Keys(opt.Define)) {
		add("define", "%s=%s", key, opt.Define[key])
	}

	if exts := resolveExtensions(cfg.Resolve.Extensions); len(exts) > 0 {
		add("resolve", "%s", strings.Join(exts, " "))
	}

	for i, r := range cfg.TransformRules {
		name := "transform"
		if r.EffectivePhase() == buildconfig.PhasePre {
			name = "pre-transform"
		}
		detail := fmt.Sprintf("#%d %s -> %s", i, r.Match, r.Handler)
		if r.Exclude != "" {
			detail += fmt.Sprintf(" (exclude %s)", r.Exclude)
		}
		if r.Handler == buildconfig.HandlerURL {
			limit, _ := r.IntOption("limit", buildconfig.DefaultInlineLimit)
			detail += fmt.Sprintf(" (inline below %d bytes)", limit)
		}
		add(name, "%s", detail)
	}

	for _, pp := range cfg.PostProcessors {
		targets, err := buildconfig.ResolveBrowsers(pp.Browsers)
		if err != nil {
			add(string(pp.Kind), "%v", err)
			continue
		}
		names := make([]string, 0, len(targets))
		for _, t := range targets {
			names = append(names, t.String())
		}
		add(string(pp.Kind), "%s", strings.Join(names, ", "))
	}

	for _, ex := range opt.ExcludeLocales {
		add("exclude-locales", "%s from %s", ex.Request, strings.Join(ex.Contexts, ", "))
	}

	if opt.SharedBundle != "" {
		add("split-chunks", "shared bundle %s", opt.SharedBundle)
	}
	if opt.DeadCodeElimination {
		add("tree-shake", "")
	}
	if opt.Minify {
		add("minify", "")
	}
	if opt.SourceMap {
		add("sourcemap", "linked")
	}

	for _, name := range cfg.EntryPoints.Names() {
		add("bundle", "%s <- %s -> %s", name, strings.Join(cfg.EntryPoints[name], ", "), namePattern(cfg.Output.Filename, "[name]-[hash]"))
	}

	if opt.Bail {
		add("bail", "stop at first error")
	}
	if opt.FailOnWarnings {
		add("fail-on-warnings", "")
	}

	for _, a := range cfg.ArtifactTemplates {
		tmpl := a.Template
		if tmpl == "" {
			tmpl = shellTemplateName
		}
		detail := fmt.Sprintf("%s <- %s [%s]", a.Filename, tmpl, strings.Join(a.Bundles, ", "))
		if a.CacheBust {
			detail += " (cache bust)"
		}
		add("artifact", "%s", detail)
	}

	for _, format := range opt.Compress {
		add("compress", "%s", format)
	}

	return steps
}

func (p *Pipeline) relativeToBase(path string) string {
	rel, err := filepath.Rel(p.baseDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
