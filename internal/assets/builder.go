package assets

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
	"github.com/wolfeidau/bundlespec/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const tracerName = "github.com/wolfeidau/bundlespec/internal/assets"

// Build runs esbuild with the configured descriptor, loads the metadata and generates the
// artifact templates
func (p *Pipeline) Build(ctx context.Context) (report *Report, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate build id: %w", err)
	}

	started := time.Now()
	logger := p.logger.With().Str("build_id", id.String()).Logger()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assets.Build")
	span.SetAttributes(attribute.String("build.id", id.String()))
	metrics := telemetry.GetMetrics()

	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attrs := metric.WithAttributes(attribute.String("status", status))
		metrics.BuildsTotal.Add(ctx, 1, attrs)
		metrics.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
		span.End()
	}()

	opts, err := p.buildOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to translate build configuration: %w", err)
	}

	if p.config.Optimization.Clean {
		if err = p.clean(); err != nil {
			return nil, err
		}
		logger.Info().Str("dir", p.outdir).Msg("Cleaned output directory")
	}

	logger.Info().Strs("entrypoints", p.config.EntryPoints.Names()).Msg("Building assets")

	result := api.Build(opts)

	for _, msg := range result.Warnings {
		logger.Warn().Str("warning", formatMessage(msg)).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		errs := result.Errors
		// bailing stops at the first error
		if p.config.Optimization.Bail {
			errs = errs[:1]
		}
		for _, msg := range errs {
			logger.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		return nil, fmt.Errorf("%w: %s", ErrBuildFailed, joinMessages(errs))
	}

	if p.config.Optimization.FailOnWarnings && len(result.Warnings) > 0 {
		return nil, fmt.Errorf("%w: %d warnings: %s", ErrBuildFailed, len(result.Warnings), joinMessages(result.Warnings))
	}

	report = &Report{ID: id, Warnings: len(result.Warnings)}

	for _, file := range result.OutputFiles {
		rel := p.relative(file.Path)
		report.Outputs = append(report.Outputs, rel)
		metrics.OutputBytes.Add(ctx, int64(len(file.Contents)))
		logger.Info().Str("file", rel).Int("bytes", len(file.Contents)).Msg("Built file")
	}
	slices.Sort(report.Outputs)

	if err = os.WriteFile(p.metafile, []byte(result.Metafile), 0600); err != nil {
		return nil, fmt.Errorf("failed to write metafile: %w", err)
	}

	var metadata BuildMetadata
	if err = json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.metadata = &metadata
	p.hash = buildHash([]byte(result.Metafile))
	report.Hash = p.hash

	report.Artifacts, err = p.renderArtifacts()
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(report.Outputs)+len(report.Artifacts))
	files = append(files, report.Outputs...)
	files = append(files, report.Artifacts...)
	report.Compressed, err = p.compress(ctx, files)
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(started)
	span.SetAttributes(
		attribute.String("build.hash", report.Hash),
		attribute.Int("build.outputs", len(report.Outputs)),
	)

	logger.Info().
		Str("hash", report.Hash).
		Int("outputs", len(report.Outputs)).
		Int("artifacts", len(report.Artifacts)).
		Dur("duration", report.Duration).
		Msg("Build complete")

	return report, nil
}

// clean removes the output directory. Only directories below the build context are removed.
func (p *Pipeline) clean() error {
	rel, err := filepath.Rel(p.baseDir, p.outdir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsafeClean, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s is not inside the build context", ErrUnsafeClean, p.outdir)
	}
	if err := os.RemoveAll(p.outdir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	return nil
}

// buildHash identifies a build by its metafile: a CRC64-NVME checksum, base58 encoded.
func buildHash(metafile []byte) string {
	h := crc64nvme.New()
	h.Write(metafile)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return base58.Encode(sum[:])
}

// relative returns the slash separated path of file relative to the output directory.
func (p *Pipeline) relative(file string) string {
	if !filepath.IsAbs(file) {
		file = filepath.Join(p.baseDir, file)
	}
	rel, err := filepath.Rel(p.outdir, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// url returns the URL an artifact uses to reference output. from is the slash separated
// directory of the artifact relative to the output directory; without a public path the URL
// is relative to it.
func (p *Pipeline) url(output, from string) string {
	rel := p.relative(output)

	publicPath := p.config.Output.PublicPath
	if publicPath == nil || *publicPath == "" {
		if from == "" || from == "." {
			return rel
		}
		ref, err := filepath.Rel(filepath.FromSlash(from), filepath.FromSlash(rel))
		if err != nil {
			return rel
		}
		return filepath.ToSlash(ref)
	}
	if strings.HasSuffix(*publicPath, "/") {
		return *publicPath + rel
	}
	return *publicPath + "/" + rel
}

// LoadScripts returns the ordered list of script URLs needed for the given bundle: its entry
// output followed by the chunks it statically imports.
func (p *Pipeline) LoadScripts(bundle string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadScripts(bundle, ".", make(map[string]bool))
}

func (p *Pipeline) loadScripts(bundle, from string, visited map[string]bool) ([]string, error) {
	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	outputPath, info, ok := p.entryOutput(bundle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBundle, bundle)
	}

	scripts := []string{}
	if !visited[outputPath] {
		visited[outputPath] = true
		scripts = append(scripts, p.url(outputPath, from))
	}
	p.addDependencies(info, from, &scripts, visited)

	return scripts, nil
}

// LoadStyles returns the URL of the CSS extracted for the given bundle, if any.
func (p *Pipeline) LoadStyles(bundle string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	_, info, ok := p.entryOutput(bundle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBundle, bundle)
	}
	if info.CSSBundle == "" {
		return []string{}, nil
	}
	return []string{p.url(info.CSSBundle, ".")}, nil
}

func (p *Pipeline) entryOutput(bundle string) (string, OutputInfo, bool) {
	input := entryInput(bundle)
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == input && path.Ext(outputPath) != ".css" {
			return outputPath, info, true
		}
	}
	return "", OutputInfo{}, false
}

func (p *Pipeline) addDependencies(output OutputInfo, from string, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		// dynamic imports are fetched on demand
		if imp.Kind == "dynamic-import" || path.Ext(imp.Path) != ".js" {
			continue
		}
		if !visited[imp.Path] {
			visited[imp.Path] = true
			*scripts = append(*scripts, p.url(imp.Path, from))

			if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
				p.addDependencies(chunkInfo, from, scripts, visited)
			}
		}
	}
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}

func joinMessages(msgs []api.Message) string {
	texts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		texts = append(texts, formatMessage(msg))
	}
	return strings.Join(texts, "; ")
}

