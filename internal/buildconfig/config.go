package buildconfig

import (
	"maps"
	"slices"
)

// VendorBundle is the reserved name of the shared vendor bundle. Artifact templates may
// reference it even when it is not declared as an entry point.
const VendorBundle = "vendors"

// Phase controls when a transform rule runs relative to the others.
type Phase string

const (
	// PhasePre rules inspect sources before they are loaded, e.g. lint checks.
	PhasePre Phase = "pre"
	// PhaseNormal rules pick the handler used to load a source.
	PhaseNormal Phase = "normal"
)

// Handler identifies what the external bundler does with a matching source.
type Handler string

const (
	HandlerLint   Handler = "lint"
	HandlerScript Handler = "script"
	HandlerStyle  Handler = "style"
	HandlerURL    Handler = "url"
	HandlerFile   Handler = "file"
	HandlerText   Handler = "text"
	HandlerJSON   Handler = "json"
	HandlerCopy   Handler = "copy"
	HandlerEmpty  Handler = "empty"
)

// Handlers lists every handler the executor understands.
var Handlers = []Handler{
	HandlerLint, HandlerScript, HandlerStyle, HandlerURL, HandlerFile,
	HandlerText, HandlerJSON, HandlerCopy, HandlerEmpty,
}

// PostProcessorKind names the effect of a post-processing directive.
type PostProcessorKind string

const (
	// PostProcessVendorPrefix adds vendor prefixes to CSS for the listed browsers.
	PostProcessVendorPrefix PostProcessorKind = "vendor-prefix"
)

// DefaultInlineLimit is the size in bytes below which url handled assets are inlined.
const DefaultInlineLimit = 10000

// BuildConfig is the complete, declarative description of a production build.
//
// It is constructed once per build invocation and must not be mutated while a build is in
// progress.
type BuildConfig struct {
	// Context is the directory module identifiers and templates are resolved from.
	Context string `yaml:"context,omitempty" json:"context,omitempty"`
	// EntryPoints maps bundle names to the modules they start from.
	EntryPoints EntryPoints `yaml:"entryPoints" json:"entryPoints"`
	Output      Output      `yaml:"output" json:"output"`
	Resolve     Resolve     `yaml:"resolve,omitempty" json:"resolve,omitempty"`
	// TransformRules are evaluated in order, the first match in a phase wins.
	TransformRules    []TransformRule    `yaml:"transformRules,omitempty" json:"transformRules,omitempty"`
	PostProcessors    []PostProcessor    `yaml:"postProcessors,omitempty" json:"postProcessors,omitempty"`
	Optimization      Optimization       `yaml:"optimization,omitempty" json:"optimization,omitempty"`
	ArtifactTemplates []ArtifactTemplate `yaml:"artifactTemplates,omitempty" json:"artifactTemplates,omitempty"`
}

// EntryPoints maps a bundle name to its ordered modules.
type EntryPoints map[string]Modules

// Names returns the bundle names in lexical order.
func (e EntryPoints) Names() []string {
	return slices.Sorted(maps.Keys(e))
}

// Has reports whether name is a declared bundle.
func (e EntryPoints) Has(name string) bool {
	_, ok := e[name]
	return ok
}

type Output struct {
	// Directory receives every generated file.
	Directory string `yaml:"directory" json:"directory"`
	// Filename is the pattern for bundles and chunks, e.g. "[chunkhash].js".
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
	// AssetFilename is the pattern for copied assets, e.g. "[name]-[hash]".
	AssetFilename string `yaml:"assetFilename,omitempty" json:"assetFilename,omitempty"`
	// PublicPath prefixes every URL emitted into bundles and artifacts. Nil means relative.
	PublicPath *string `yaml:"publicPath,omitempty" json:"publicPath,omitempty"`
}

type Resolve struct {
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// TransformRule maps matching sources to a handler.
type TransformRule struct {
	Phase Phase `yaml:"phase,omitempty" json:"phase,omitempty"`
	// Match is a regular expression tested against the source path.
	Match string `yaml:"match" json:"match"`
	// Exclude is an optional regular expression, matching sources are skipped.
	Exclude string         `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Handler Handler        `yaml:"handler" json:"handler"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// EffectivePhase returns the rule phase, defaulting to PhaseNormal.
func (r TransformRule) EffectivePhase() Phase {
	if r.Phase == "" {
		return PhaseNormal
	}
	return r.Phase
}

// PostProcessor is a single style or asset post-processing directive.
type PostProcessor struct {
	Kind PostProcessorKind `yaml:"kind" json:"kind"`
	// Browsers are queries such as "last 2 versions" or "safari 16".
	Browsers []string `yaml:"browsers,omitempty" json:"browsers,omitempty"`
}

// Optimization holds the directives applied to the whole build.
type Optimization struct {
	// Clean removes the output directory before building.
	Clean bool `yaml:"clean,omitempty" json:"clean,omitempty"`
	// Bail stops at the first error. Warnings never fail the build unless FailOnWarnings is set.
	Bail                bool              `yaml:"bail,omitempty" json:"bail,omitempty"`
	FailOnWarnings      bool              `yaml:"failOnWarnings,omitempty" json:"failOnWarnings,omitempty"`
	DeadCodeElimination bool              `yaml:"deadCodeElimination,omitempty" json:"deadCodeElimination,omitempty"`
	Minify              bool              `yaml:"minify,omitempty" json:"minify,omitempty"`
	SourceMap           bool              `yaml:"sourceMap,omitempty" json:"sourceMap,omitempty"`
	Define              map[string]string `yaml:"define,omitempty" json:"define,omitempty"`
	// SharedBundle names the entry point whose modules are split out and shared.
	SharedBundle   string            `yaml:"sharedBundle,omitempty" json:"sharedBundle,omitempty"`
	ExcludeLocales []LocaleExclusion `yaml:"excludeLocales,omitempty" json:"excludeLocales,omitempty"`
	// Compress lists precompressed sidecar formats: gzip, zstd, br.
	Compress []string `yaml:"compress,omitempty" json:"compress,omitempty"`
}

// LocaleExclusion drops module requests matching Request when the importing module's
// directory matches one of Contexts.
type LocaleExclusion struct {
	Request  string   `yaml:"request" json:"request"`
	Contexts []string `yaml:"contexts,omitempty" json:"contexts,omitempty"`
}

// ArtifactTemplate describes an HTML shell generated for a group of bundles.
type ArtifactTemplate struct {
	// Template is the source template path. Empty uses the built in shell.
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
	Filename string `yaml:"filename" json:"filename"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	// Bundles are included in the listed order.
	Bundles []string `yaml:"bundles" json:"bundles"`
	// CacheBust appends the build hash to every referenced URL.
	CacheBust bool `yaml:"cacheBust,omitempty" json:"cacheBust,omitempty"`
}

// IncludesBundle reports whether the template references the named bundle.
func (a ArtifactTemplate) IncludesBundle(name string) bool {
	return slices.Contains(a.Bundles, name)
}
