package assets

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

var (
	// "[hash:8]" style length suffixes are not supported by esbuild
	hashLength = regexp.MustCompile(`\[(chunkhash|contenthash|hash)(:\d+)?\]`)

	namePlaceholders = strings.NewReplacer(
		"[chunkhash]", "[hash]",
		"[contenthash]", "[hash]",
		"[id]", "[name]",
	)
)

// namePattern translates an output filename pattern into an esbuild name template. esbuild
// appends the extension itself, so a trailing extension is dropped.
func namePattern(pattern, def string) string {
	if pattern == "" {
		return def
	}

	p := hashLength.ReplaceAllString(pattern, "[$1]")
	p = namePlaceholders.Replace(p)

	for _, ext := range []string{".[ext]", ".js", ".mjs", ".css"} {
		if trimmed, ok := strings.CutSuffix(p, ext); ok {
			p = trimmed
			break
		}
	}

	if p == "" {
		return def
	}
	return p
}

// entryInput is the virtual input path of a bundle, resolved by the bundle entries plugin.
func entryInput(name string) string {
	return bundleNamespace + ":" + name
}

// splitting reports whether modules shared between bundles are split into chunks, which
// requires ES module output.
func (p *Pipeline) splitting() bool {
	return p.config.Optimization.SharedBundle != ""
}

// buildOptions translates the descriptor into esbuild's configuration.
func (p *Pipeline) buildOptions() (api.BuildOptions, error) {
	cfg := p.config

	rules, err := compileRules(cfg.TransformRules)
	if err != nil {
		return api.BuildOptions{}, err
	}

	exclusions, err := compileExclusions(cfg.Optimization.ExcludeLocales)
	if err != nil {
		return api.BuildOptions{}, err
	}

	engines, err := resolveEngines(cfg.PostProcessors)
	if err != nil {
		return api.BuildOptions{}, err
	}

	names := cfg.EntryPoints.Names()
	entryPoints := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  entryInput(name),
			OutputPath: name,
		})
	}

	opt := cfg.Optimization

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.baseDir,
		Outdir:              p.outdir,
		EntryNames:          namePattern(cfg.Output.Filename, "[name]-[hash]"),
		ChunkNames:          namePattern(cfg.Output.Filename, "[name]-[hash]"),
		AssetNames:          namePattern(cfg.Output.AssetFilename, "[name]-[hash]"),
		Bundle:              true,
		Splitting:           p.splitting(),
		Format:              cond(p.splitting(), api.FormatESModule, api.FormatIIFE),
		Platform:            api.PlatformBrowser,
		JSX:                 api.JSXAutomatic,
		Write:               true,
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		MinifyWhitespace:    opt.Minify,
		MinifyIdentifiers:   opt.Minify,
		MinifySyntax:        opt.Minify,
		TreeShaking:         cond(opt.DeadCodeElimination, api.TreeShakingTrue, api.TreeShakingFalse),
		Sourcemap:           cond(opt.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Define:              maps.Clone(opt.Define),
		Engines:             engines,
		ResolveExtensions:   resolveExtensions(cfg.Resolve.Extensions),
		Plugins: []api.Plugin{
			bundleEntriesPlugin(cfg.EntryPoints, p.baseDir),
			localeExclusionPlugin(exclusions),
			transformRulesPlugin(rules, p.logger),
		},
	}

	if cfg.Output.PublicPath != nil {
		opts.PublicPath = *cfg.Output.PublicPath
	}

	return opts, nil
}

// resolveExtensions drops the empty extension some descriptors list for "as written".
func resolveExtensions(exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// resolveEngines turns the vendor prefix browser queries into esbuild engine targets, which
// decide the prefixes esbuild adds to CSS.
func resolveEngines(processors []buildconfig.PostProcessor) ([]api.Engine, error) {
	var queries []string
	for _, pp := range processors {
		if pp.Kind == buildconfig.PostProcessVendorPrefix {
			queries = append(queries, pp.Browsers...)
		}
	}
	if len(queries) == 0 {
		return nil, nil
	}

	targets, err := buildconfig.ResolveBrowsers(queries)
	if err != nil {
		return nil, err
	}

	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		name, ok := engineNames[t.Browser]
		if !ok {
			return nil, fmt.Errorf("no esbuild engine for browser %q", t.Browser)
		}
		engines = append(engines, api.Engine{Name: name, Version: t.Version})
	}
	return engines, nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
