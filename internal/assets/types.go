package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

var (
	// ErrBuildFailed indicates the bundler reported errors, or warnings when they are fatal
	ErrBuildFailed = errors.New("build failed")
	// ErrNotBuilt indicates metadata was requested before Build completed
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrUnknownBundle indicates a bundle has no output in the build metadata
	ErrUnknownBundle = errors.New("bundle not found in metadata")
	// ErrUnsafeClean indicates the output directory cannot be removed safely
	ErrUnsafeClean = errors.New("refusing to clean output directory")
)

// BuildMetadata is the subset of the esbuild metafile the pipeline reads.
type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
	Bytes      int          `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Report summarises a finished build.
type Report struct {
	ID uuid.UUID
	// Hash identifies the build output, it is appended to URLs of cache busted artifacts.
	Hash string
	// Outputs, Artifacts and Compressed are paths relative to the output directory.
	Outputs    []string
	Artifacts  []string
	Compressed []string
	Warnings   int
	Duration   time.Duration
}

// Pipeline hands a build descriptor to esbuild and generates the artifacts it describes
type Pipeline struct {
	config   *buildconfig.BuildConfig
	baseDir  string
	outdir   string
	metafile string
	funcs    template.FuncMap
	logger   zerolog.Logger

	metadata *BuildMetadata
	hash     string
	mu       sync.RWMutex
}

type Option func(*Pipeline)

// WithTemplateFuncs makes additional functions available to artifact templates.
func WithTemplateFuncs(funcs template.FuncMap) Option {
	return func(p *Pipeline) {
		maps.Copy(p.funcs, funcs)
	}
}

// WithMetafile overrides where the esbuild metafile is written, by default meta.json in the
// output directory.
func WithMetafile(path string) Option {
	return func(p *Pipeline) {
		p.metafile = path
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline for cfg. The descriptor must pass validation and must not
// be modified while the pipeline is in use.
func NewPipeline(cfg *buildconfig.BuildConfig, opts ...Option) (*Pipeline, error) {
	if res := buildconfig.Validate(cfg); !res.Valid() {
		return nil, fmt.Errorf("cannot create pipeline: %w", res.Err())
	}

	baseDir, err := filepath.Abs(cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build context: %w", err)
	}

	outdir := cfg.Output.Directory
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(baseDir, outdir)
	}

	p := &Pipeline{
		config:   cfg,
		baseDir:  baseDir,
		outdir:   outdir,
		metafile: filepath.Join(outdir, "meta.json"),
		logger:   log.Logger,
		funcs: template.FuncMap{
			"marshal": marshal,
			"safe": func(s string) template.HTML {
				return template.HTML(s) //nolint:gosec
			},
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// OutputDir returns the absolute output directory.
func (p *Pipeline) OutputDir() string {
	return p.outdir
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
