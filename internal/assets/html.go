package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

//go:embed templates/shell.html
var shellTemplate string

const shellTemplateName = "shell.html"

// ArtifactData is passed to artifact templates.
type ArtifactData struct {
	Title   string
	Bundles []string
	// Scripts and Styles are URLs in inclusion order.
	Scripts []string
	Styles  []string
	// Module is set when scripts must be loaded with type="module".
	Module bool
	Hash   string
}

// renderArtifacts writes every artifact template into the output directory and returns
// their paths relative to it.
func (p *Pipeline) renderArtifacts() ([]string, error) {
	templates := make(map[string]*template.Template)
	artifacts := make([]string, 0, len(p.config.ArtifactTemplates))

	for _, a := range p.config.ArtifactTemplates {
		tmpl, ok := templates[a.Template]
		if !ok {
			var err error
			if tmpl, err = p.loadTemplate(a.Template); err != nil {
				return nil, err
			}
			templates[a.Template] = tmpl
		}

		data, err := p.artifactData(a)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", a.Filename, err)
		}

		buf := new(bytes.Buffer)
		if err := tmpl.Execute(buf, data); err != nil {
			return nil, fmt.Errorf("failed to render artifact %s: %w", a.Filename, err)
		}

		out := filepath.Join(p.outdir, filepath.FromSlash(a.Filename))
		if err := os.MkdirAll(filepath.Dir(out), 0750); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil { //nolint:gosec
			return nil, fmt.Errorf("failed to write artifact %s: %w", a.Filename, err)
		}

		rel := p.relative(out)
		artifacts = append(artifacts, rel)
		p.logger.Info().Str("artifact", rel).Strs("bundles", a.Bundles).Msg("Rendered artifact")
	}

	return artifacts, nil
}

func (p *Pipeline) loadTemplate(file string) (*template.Template, error) {
	if file == "" {
		return template.New(shellTemplateName).Funcs(p.funcs).Parse(shellTemplate)
	}

	if !filepath.IsAbs(file) {
		file = filepath.Join(p.baseDir, file)
	}

	tmpl, err := template.New(filepath.Base(file)).Funcs(p.funcs).ParseFiles(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact template: %w", err)
	}
	return tmpl, nil
}

// artifactData collects the scripts and styles of the template's bundles. Chunks shared by
// several bundles are only included once.
func (p *Pipeline) artifactData(a buildconfig.ArtifactTemplate) (ArtifactData, error) {
	data := ArtifactData{
		Title:   a.Title,
		Bundles: a.Bundles,
		Scripts: []string{},
		Styles:  []string{},
		Module:  p.splitting(),
		Hash:    p.hash,
	}
	if data.Title == "" {
		data.Title = strings.TrimSuffix(filepath.Base(a.Filename), filepath.Ext(a.Filename))
	}

	from := path.Dir(filepath.ToSlash(a.Filename))
	visited := make(map[string]bool)
	for _, bundle := range a.Bundles {
		// the reserved vendor bundle may be referenced without being declared
		if bundle == buildconfig.VendorBundle && !p.config.EntryPoints.Has(bundle) {
			continue
		}

		scripts, err := p.loadScripts(bundle, from, visited)
		if err != nil {
			return ArtifactData{}, err
		}
		data.Scripts = append(data.Scripts, scripts...)

		if _, info, ok := p.entryOutput(bundle); ok && info.CSSBundle != "" && !visited[info.CSSBundle] {
			visited[info.CSSBundle] = true
			data.Styles = append(data.Styles, p.url(info.CSSBundle, from))
		}
	}

	if a.CacheBust {
		for i := range data.Scripts {
			data.Scripts[i] = cacheBust(data.Scripts[i], p.hash)
		}
		for i := range data.Styles {
			data.Styles[i] = cacheBust(data.Styles[i], p.hash)
		}
	}

	return data, nil
}

func cacheBust(url, hash string) string {
	if strings.Contains(url, "?") {
		return url + "&" + hash
	}
	return url + "?" + hash
}
