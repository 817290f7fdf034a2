package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

// builtPipeline returns a pipeline with metadata shaped like an esbuild metafile of a split
// build, as if Build had completed.
func builtPipeline(t *testing.T, cfg *buildconfig.BuildConfig) *Pipeline {
	t.Helper()

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	p.hash = "5Hq2nK"
	p.metadata = &BuildMetadata{
		Outputs: map[string]OutputInfo{
			"dist/app-AAAA.js": {
				EntryPoint: "bundle:app",
				Imports: []ImportInfo{
					{Path: "dist/chunk-CCCC.js", Kind: "import-statement"},
					{Path: "dist/lazy-DDDD.js", Kind: "dynamic-import"},
					{Path: "dist/font-EEEE.woff", Kind: "file-loader"},
				},
				CSSBundle: "dist/app-AAAA.css",
			},
			"dist/app-AAAA.css": {EntryPoint: "bundle:app"},
			"dist/vendors-BBBB.js": {
				EntryPoint: "bundle:vendors",
				Imports:    []ImportInfo{{Path: "dist/chunk-CCCC.js", Kind: "import-statement"}},
			},
			"dist/other-FFFF.js": {
				EntryPoint: "bundle:other",
				Imports:    []ImportInfo{{Path: "dist/chunk-CCCC.js", Kind: "import-statement"}},
			},
			"dist/chunk-CCCC.js": {},
			"dist/lazy-DDDD.js":  {},
		},
	}
	return p
}

func TestLoadScripts(t *testing.T) {
	p := builtPipeline(t, testConfig(t))

	scripts, err := p.LoadScripts("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-AAAA.js", "chunk-CCCC.js"}, scripts)

	styles, err := p.LoadStyles("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-AAAA.css"}, styles)

	styles, err = p.LoadStyles("vendors")
	require.NoError(t, err)
	assert.Empty(t, styles)

	_, err = p.LoadScripts("missing")
	require.ErrorIs(t, err, ErrUnknownBundle)
}

func TestLoadScripts_notBuilt(t *testing.T) {
	p, err := NewPipeline(testConfig(t))
	require.NoError(t, err)

	_, err = p.LoadScripts("app")
	require.ErrorIs(t, err, ErrNotBuilt)

	_, err = p.LoadStyles("app")
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestArtifactData(t *testing.T) {
	tests := []struct {
		name       string
		publicPath *string
		artifact   buildconfig.ArtifactTemplate
		want       ArtifactData
	}{
		{
			name:     "shared chunks are included once",
			artifact: buildconfig.ArtifactTemplate{Filename: "index.html", Bundles: []string{"vendors", "app"}},
			want: ArtifactData{
				Title:   "index",
				Bundles: []string{"vendors", "app"},
				Scripts: []string{"vendors-BBBB.js", "chunk-CCCC.js", "app-AAAA.js"},
				Styles:  []string{"app-AAAA.css"},
				Module:  true,
				Hash:    "5Hq2nK",
			},
		},
		{
			name:     "nested artifact references outputs relative to itself",
			artifact: buildconfig.ArtifactTemplate{Filename: "pages/index.html", Bundles: []string{"vendors", "app"}},
			want: ArtifactData{
				Title:   "index",
				Bundles: []string{"vendors", "app"},
				Scripts: []string{"../vendors-BBBB.js", "../chunk-CCCC.js", "../app-AAAA.js"},
				Styles:  []string{"../app-AAAA.css"},
				Module:  true,
				Hash:    "5Hq2nK",
			},
		},
		{
			name:       "public path and cache busting",
			publicPath: ptr("https://cdn.example.com/static"),
			artifact:   buildconfig.ArtifactTemplate{Filename: "pages/other.html", Title: "Other", Bundles: []string{"other"}, CacheBust: true},
			want: ArtifactData{
				Title:   "Other",
				Bundles: []string{"other"},
				Scripts: []string{"https://cdn.example.com/static/other-FFFF.js?5Hq2nK", "https://cdn.example.com/static/chunk-CCCC.js?5Hq2nK"},
				Styles:  []string{},
				Module:  true,
				Hash:    "5Hq2nK",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Output.PublicPath = tt.publicPath
			p := builtPipeline(t, cfg)

			data, err := p.artifactData(tt.artifact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, data)
		})
	}
}

func TestArtifactData_undeclaredVendorBundle(t *testing.T) {
	cfg := testConfig(t)
	delete(cfg.EntryPoints, buildconfig.VendorBundle)
	cfg.Optimization.SharedBundle = ""
	p := builtPipeline(t, cfg)

	data, err := p.artifactData(buildconfig.ArtifactTemplate{Filename: "index.html", Bundles: []string{"vendors", "app"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-AAAA.js", "chunk-CCCC.js"}, data.Scripts)
	assert.False(t, data.Module)
}

func TestRenderArtifacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.PublicPath = ptr("/static/")
	writeSource(t, cfg.Context, "app/html/index.html",
		`<title>{{.Title}}</title>{{range .Scripts}}<script src="{{.}}"></script>{{end}}`+"\n"+
			`<pre>{{safe (marshal .Bundles)}}</pre>`)
	cfg.ArtifactTemplates = []buildconfig.ArtifactTemplate{
		{Template: "app/html/index.html", Filename: "index.html", Bundles: []string{"vendors", "app"}, CacheBust: true},
		{Filename: "other.html", Bundles: []string{"other"}},
	}
	p := builtPipeline(t, cfg)

	artifacts, err := p.renderArtifacts()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "other.html"}, artifacts)

	index, err := os.ReadFile(filepath.Join(p.OutputDir(), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<script src="/static/vendors-BBBB.js?5Hq2nK"></script>`)
	assert.Contains(t, string(index), `<pre>["vendors","app"]`)

	other, err := os.ReadFile(filepath.Join(p.OutputDir(), "other.html"))
	require.NoError(t, err)
	assert.Contains(t, string(other), "<title>other</title>")
	assert.Contains(t, string(other), `<script type="module" src="/static/other-FFFF.js"></script>`)
	assert.Contains(t, string(other), `<div id="app"></div>`)
}

func TestRenderArtifacts_nestedWithoutPublicPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArtifactTemplates = []buildconfig.ArtifactTemplate{
		{Filename: "pages/admin/index.html", Bundles: []string{"vendors", "app"}},
	}
	p := builtPipeline(t, cfg)

	artifacts, err := p.renderArtifacts()
	require.NoError(t, err)
	assert.Equal(t, []string{"pages/admin/index.html"}, artifacts)

	index, err := os.ReadFile(filepath.Join(p.OutputDir(), "pages", "admin", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<script type="module" src="../../vendors-BBBB.js"></script>`)
	assert.Contains(t, string(index), `href="../../app-AAAA.css"`)
}

func TestRenderArtifacts_missingTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArtifactTemplates[0].Template = "app/html/missing.html"
	p := builtPipeline(t, cfg)

	_, err := p.renderArtifacts()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load artifact template")
}

func TestCacheBust(t *testing.T) {
	assert.Equal(t, "/app.js?abc", cacheBust("/app.js", "abc"))
	assert.Equal(t, "/app.js?v=1&abc", cacheBust("/app.js?v=1", "abc"))
}
