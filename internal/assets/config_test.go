package assets

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

func TestNamePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "", want: "[name]-[hash]"},
		{pattern: "[chunkhash].js", want: "[hash]"},
		{pattern: "[name]-[contenthash:8].js", want: "[name]-[hash]"},
		{pattern: "[name]-[hash].[ext]", want: "[name]-[hash]"},
		{pattern: "assets/[name].[hash].css", want: "assets/[name].[hash]"},
		{pattern: "[id].mjs", want: "[name]"},
		{pattern: ".js", want: "[name]-[hash]"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, namePattern(tt.pattern, "[name]-[hash]"))
		})
	}
}

func TestResolveEngines(t *testing.T) {
	tests := []struct {
		name       string
		processors []buildconfig.PostProcessor
		want       []api.Engine
		wantErr    bool
	}{
		{
			name: "no post processors",
		},
		{
			name: "explicit browsers",
			processors: []buildconfig.PostProcessor{
				{Kind: buildconfig.PostProcessVendorPrefix, Browsers: []string{"safari 14", "firefox 115"}},
			},
			want: []api.Engine{
				{Name: api.EngineFirefox, Version: "115"},
				{Name: api.EngineSafari, Version: "14"},
			},
		},
		{
			name: "oldest version wins",
			processors: []buildconfig.PostProcessor{
				{Kind: buildconfig.PostProcessVendorPrefix, Browsers: []string{"last 2 versions"}},
				{Kind: buildconfig.PostProcessVendorPrefix, Browsers: []string{"safari 15.4"}},
			},
			want: []api.Engine{
				{Name: api.EngineChrome, Version: "130"},
				{Name: api.EngineEdge, Version: "130"},
				{Name: api.EngineFirefox, Version: "132"},
				{Name: api.EngineIOS, Version: "17"},
				{Name: api.EngineOpera, Version: "114"},
				{Name: api.EngineSafari, Version: "15.4"},
			},
		},
		{
			name: "unknown query",
			processors: []buildconfig.PostProcessor{
				{Kind: buildconfig.PostProcessVendorPrefix, Browsers: []string{"> 1%"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engines, err := resolveEngines(tt.processors)
			if tt.wantErr {
				require.ErrorIs(t, err, buildconfig.ErrUnknownBrowserQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, engines)
		})
	}
}

func TestResolveExtensions(t *testing.T) {
	assert.Nil(t, resolveExtensions(nil))
	assert.Equal(t, []string{".js", ".jsx"}, resolveExtensions([]string{"", ".js", ".jsx"}))
}

func TestBuildOptions(t *testing.T) {
	cfg := buildconfig.Production()
	cfg.Context = t.TempDir()
	cfg.Output.PublicPath = ptr("/static/")

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	opts, err := p.buildOptions()
	require.NoError(t, err)

	assert.Equal(t, p.baseDir, opts.AbsWorkingDir)
	assert.Equal(t, p.OutputDir(), opts.Outdir)
	assert.Equal(t, "[hash]", opts.EntryNames)
	assert.Equal(t, "[name]-[hash]", opts.AssetNames)
	assert.True(t, opts.Splitting)
	assert.Equal(t, api.FormatESModule, opts.Format)
	assert.True(t, opts.MinifyWhitespace)
	assert.Equal(t, api.TreeShakingTrue, opts.TreeShaking)
	assert.Equal(t, api.SourceMapNone, opts.Sourcemap)
	assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	assert.Equal(t, "/static/", opts.PublicPath)
	assert.Len(t, opts.Plugins, 3)

	inputs := make([]string, 0, len(opts.EntryPointsAdvanced))
	for _, ep := range opts.EntryPointsAdvanced {
		inputs = append(inputs, ep.InputPath)
	}
	assert.Equal(t, []string{"bundle:app", "bundle:contrast-app", "bundle:terminal-app", "bundle:vendors"}, inputs)

	// the descriptor's define map is not shared with esbuild
	opts.Define["DEBUG"] = "true"
	assert.NotContains(t, cfg.Optimization.Define, "DEBUG")
}

func TestBuildOptions_withoutSharedBundle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Optimization.SharedBundle = ""

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	opts, err := p.buildOptions()
	require.NoError(t, err)
	assert.False(t, opts.Splitting)
	assert.Equal(t, api.FormatIIFE, opts.Format)
	assert.Empty(t, opts.PublicPath)
}
