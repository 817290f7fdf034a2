package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

func testGlobals(env buildconfig.MapEnvironment) (*Globals, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return &Globals{Version: "test", Out: buf, Env: env}, buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestValidateCmd_Production(t *testing.T) {
	globals, out := testGlobals(buildconfig.MapEnvironment{})

	err := (&ValidateCmd{}).Run(context.Background(), globals)
	require.NoError(t, err)
	assert.Equal(t, "descriptor is valid\n", out.String())
}

func TestValidateCmd_Violations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundlespec.yaml")
	writeFile(t, path, `
entryPoints:
  app: ./main
output:
  directory: dist
  filename: bundle.js
artifactTemplates:
  - filename: a.html
    bundles: [vendors, app]
  - filename: b.html
    bundles: [vendors, missing]
`)

	globals, out := testGlobals(buildconfig.MapEnvironment{})
	cmd := &ValidateCmd{DescriptorFlags{Config: path}}

	err := cmd.Run(context.Background(), globals)
	require.ErrorIs(t, err, buildconfig.ErrInvalid)
	assert.Contains(t, err.Error(), "2 violations")
	assert.Contains(t, out.String(), "output.filename:")
	assert.Contains(t, out.String(), "artifactTemplates[1].bundles[1]:")
}

func TestValidateCmd_ConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundlespec.yaml")
	writeFile(t, path, "output:\n  directory: dist\n")

	globals, _ := testGlobals(buildconfig.MapEnvironment{})
	cmd := &ValidateCmd{DescriptorFlags{Config: path}}

	err := cmd.Run(context.Background(), globals)
	require.ErrorIs(t, err, buildconfig.ErrMissingField)

	var cfgErr *buildconfig.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "entryPoints", cfgErr.Field)
}

func TestPrintCmd(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, data []byte)
	}{
		{
			name:   "yaml round trips through LoadFile",
			format: "yaml",
			check: func(t *testing.T, data []byte) {
				path := filepath.Join(t.TempDir(), "printed.yaml")
				writeFile(t, path, string(data))

				cfg, err := buildconfig.LoadFile(path, buildconfig.MapEnvironment{})
				require.NoError(t, err)
				assert.Equal(t, "/static/", *cfg.Output.PublicPath)
				assert.True(t, buildconfig.Validate(cfg).Valid())
			},
		},
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, data []byte) {
				var cfg buildconfig.BuildConfig
				require.NoError(t, json.Unmarshal(data, &cfg))
				assert.Equal(t, "build", cfg.Output.Directory)
				assert.Equal(t, "/static/", *cfg.Output.PublicPath)
				assert.Len(t, cfg.ArtifactTemplates, 3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			globals, out := testGlobals(buildconfig.MapEnvironment{buildconfig.EnvPublicPath: "/static/"})

			err := (&PrintCmd{Format: tt.format}).Run(context.Background(), globals)
			require.NoError(t, err)
			tt.check(t, out.Bytes())
		})
	}
}

func TestEncodeDescriptor(t *testing.T) {
	cfg := buildconfig.Production()

	data, err := encodeDescriptor(cfg, "json")
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("}\n")))

	cfg.TransformRules[0].Options = map[string]any{"reporter": func() {}}
	data, err = encodeDescriptor(cfg, "json")
	require.Error(t, err)
	assert.Nil(t, data)
}

func TestPlanCmd(t *testing.T) {
	globals, out := testGlobals(buildconfig.MapEnvironment{})

	err := (&PlanCmd{}).Run(context.Background(), globals)
	require.NoError(t, err)

	plan := out.String()
	assert.Contains(t, plan, " 1. clean: build\n")
	assert.Contains(t, plan, "split-chunks: shared bundle vendors")
	assert.Contains(t, plan, "artifact: index.html <- app/html/index.html [vendors, app] (cache bust)")
}

func TestBuildCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "main.js"), `document.title = "hello";`+"\n")
	writeFile(t, filepath.Join(dir, "bundlespec.yaml"), `
entryPoints:
  app: ./src/main.js
output:
  directory: dist
  filename: "[name]-[chunkhash].js"
artifactTemplates:
  - filename: index.html
    bundles: [app]
`)

	globals, out := testGlobals(buildconfig.MapEnvironment{})
	cmd := &BuildCmd{DescriptorFlags: DescriptorFlags{Config: filepath.Join(dir, "bundlespec.yaml")}}

	err := cmd.Run(context.Background(), globals)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "artifact  index.html")
	assert.FileExists(t, filepath.Join(dir, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(dir, "dist", "meta.json"))
}
