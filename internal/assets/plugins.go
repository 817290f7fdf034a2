package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

const (
	bundleNamespace  = "bundle"
	ignoredNamespace = "ignored"
)

// bundleEntriesPlugin loads every bundle from a generated module that imports the bundle's
// modules in order, so single and multi module entry points are handled the same way.
func bundleEntriesPlugin(entries buildconfig.EntryPoints, resolveDir string) api.Plugin {
	return api.Plugin{
		Name: "bundle-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^` + bundleNamespace + `:`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind != api.ResolveEntryPoint {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, bundleNamespace+":"),
						Namespace: bundleNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: bundleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					modules, ok := entries[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("%w: %s", ErrUnknownBundle, args.Path)
					}
					contents := entrySource(modules)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: resolveDir,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

func entrySource(modules buildconfig.Modules) string {
	var sb strings.Builder
	for _, m := range modules {
		sb.WriteString("import ")
		sb.WriteString(strconv.Quote(m))
		sb.WriteString(";\n")
	}
	return sb.String()
}

type localeExclusion struct {
	request  *regexp.Regexp
	contexts []*regexp.Regexp
}

func compileExclusions(exclusions []buildconfig.LocaleExclusion) ([]localeExclusion, error) {
	out := make([]localeExclusion, 0, len(exclusions))
	for i, ex := range exclusions {
		request, err := regexp.Compile(ex.Request)
		if err != nil {
			return nil, fmt.Errorf("excludeLocales[%d]: %w", i, err)
		}
		le := localeExclusion{request: request}
		for _, c := range ex.Contexts {
			re, err := regexp.Compile(c)
			if err != nil {
				return nil, fmt.Errorf("excludeLocales[%d]: %w", i, err)
			}
			le.contexts = append(le.contexts, re)
		}
		out = append(out, le)
	}
	return out, nil
}

// excludes reports whether a request made from importer is dropped.
func (le localeExclusion) excludes(request, importer string) bool {
	if !le.request.MatchString(request) {
		return false
	}
	if len(le.contexts) == 0 {
		return true
	}
	dir := filepath.ToSlash(filepath.Dir(importer))
	for _, c := range le.contexts {
		if c.MatchString(dir) {
			return true
		}
	}
	return false
}

// localeExclusionPlugin replaces excluded requests, e.g. moment's bundled locales, with an
// empty module.
func localeExclusionPlugin(exclusions []localeExclusion) api.Plugin {
	return api.Plugin{
		Name: "exclude-locales",
		Setup: func(build api.PluginBuild) {
			for _, ex := range exclusions {
				build.OnResolve(api.OnResolveOptions{Filter: ex.request.String()},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						if !ex.excludes(args.Path, args.Importer) {
							return api.OnResolveResult{}, nil
						}
						return api.OnResolveResult{Path: args.Path, Namespace: ignoredNamespace}, nil
					})
			}

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: ignoredNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					return api.OnLoadResult{Loader: api.LoaderEmpty, Contents: new(string)}, nil
				})
		},
	}
}

type rule struct {
	index       int
	phase       buildconfig.Phase
	match       *regexp.Regexp
	exclude     *regexp.Regexp
	handler     buildconfig.Handler
	limit       int
	failOnError bool
	localCSS    bool
}

func compileRules(rules []buildconfig.TransformRule) ([]rule, error) {
	out := make([]rule, 0, len(rules))
	for i, tr := range rules {
		r := rule{index: i, phase: tr.EffectivePhase(), handler: tr.Handler}

		var err error
		if r.match, err = regexp.Compile(tr.Match); err != nil {
			return nil, fmt.Errorf("transformRules[%d].match: %w", i, err)
		}
		if tr.Exclude != "" {
			if r.exclude, err = regexp.Compile(tr.Exclude); err != nil {
				return nil, fmt.Errorf("transformRules[%d].exclude: %w", i, err)
			}
		}
		if r.limit, err = tr.IntOption("limit", buildconfig.DefaultInlineLimit); err != nil {
			return nil, fmt.Errorf("transformRules[%d]: %w", i, err)
		}
		if r.failOnError, err = tr.BoolOption("failOnError", true); err != nil {
			return nil, fmt.Errorf("transformRules[%d]: %w", i, err)
		}
		if r.localCSS, err = tr.BoolOption("modules", false); err != nil {
			return nil, fmt.Errorf("transformRules[%d]: %w", i, err)
		}

		out = append(out, r)
	}
	return out, nil
}

func (r rule) matches(source string) bool {
	if !r.match.MatchString(source) {
		return false
	}
	return r.exclude == nil || !r.exclude.MatchString(source)
}

// firstMatch returns the first rule of phase matching source.
func firstMatch(rules []rule, phase buildconfig.Phase, source string) (rule, bool) {
	for _, r := range rules {
		if r.phase == phase && r.matches(source) {
			return r, true
		}
	}
	return rule{}, false
}

// loader picks the esbuild loader for a source of the given size.
func (r rule) loader(path string, size int64) api.Loader {
	switch r.handler {
	case buildconfig.HandlerScript:
		return scriptLoader(path)
	case buildconfig.HandlerStyle:
		return cond(r.localCSS, api.LoaderLocalCSS, api.LoaderCSS)
	case buildconfig.HandlerURL:
		// inline strictly below the limit, copy at or above it
		return cond(size < int64(r.limit), api.LoaderDataURL, api.LoaderFile)
	case buildconfig.HandlerFile:
		return api.LoaderFile
	case buildconfig.HandlerText:
		return api.LoaderText
	case buildconfig.HandlerJSON:
		return api.LoaderJSON
	case buildconfig.HandlerCopy:
		return api.LoaderCopy
	case buildconfig.HandlerEmpty:
		return api.LoaderEmpty
	default:
		return api.LoaderDefault
	}
}

func scriptLoader(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	default:
		// plain .js sources may contain JSX too
		return api.LoaderJSX
	}
}

// transformRulesPlugin applies the ordered transform rules: matching pre phase rules lint
// the source, then the first matching normal rule decides how it is loaded. Sources no rule
// matches are left to esbuild's defaults.
func transformRulesPlugin(rules []rule, logger zerolog.Logger) api.Plugin {
	return api.Plugin{
		Name: "transform-rules",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					source := args.Path + args.Suffix

					lint, linted := firstMatch(rules, buildconfig.PhasePre, source)
					load, loaded := firstMatch(rules, buildconfig.PhaseNormal, source)
					if !linted && !loaded {
						return api.OnLoadResult{}, nil
					}

					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					var result api.OnLoadResult
					if linted {
						msgs := lintSource(args.Path, data)
						if len(msgs) > 0 && lint.failOnError {
							return api.OnLoadResult{Errors: msgs}, nil
						}
						result.Warnings = msgs
					}

					if !loaded {
						// esbuild loads it with its default loader, keeping any lint warnings
						return result, nil
					}

					contents := string(data)
					result.Contents = &contents
					result.ResolveDir = filepath.Dir(args.Path)
					result.Loader = load.loader(args.Path, int64(len(data)))

					logger.Debug().
						Str("source", source).
						Int("rule", load.index).
						Str("handler", string(load.handler)).
						Msg("Transform rule matched")

					return result, nil
				})
		},
	}
}

// lintSource parses a script and reports syntax errors as messages.
func lintSource(path string, data []byte) []api.Message {
	result := api.Transform(string(data), api.TransformOptions{
		Loader:     scriptLoader(path),
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})
	return result.Errors
}
