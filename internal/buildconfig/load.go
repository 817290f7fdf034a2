package buildconfig

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPublicPath overrides Output.PublicPath, e.g. to serve static content from a CDN.
const EnvPublicPath = "STATIC_CONTENT_PATH"

// Environment provides the variables a descriptor is resolved against.
type Environment interface {
	LookupEnv(key string) (string, bool)
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvironment is a fixed environment, mostly useful in tests.
type MapEnvironment map[string]string

func (m MapEnvironment) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Load constructs the production descriptor resolved against env.
//
// It returns a *ConfigurationError if a required field is absent.
func Load(env Environment) (*BuildConfig, error) {
	return resolve(Production(), env)
}

// LoadFile decodes a YAML descriptor from path and resolves it against env.
//
// Unlike Load, nothing is defaulted: a descriptor without entry points or an output
// directory is rejected. A relative context is resolved from the descriptor's directory.
func LoadFile(path string, env Environment) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, malformed(path, err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, malformed(path, err)
	}

	if !filepath.IsAbs(cfg.Context) {
		cfg.Context = filepath.Join(filepath.Dir(path), cfg.Context)
	}

	return resolve(cfg, env)
}

func decode(data []byte) (*BuildConfig, error) {
	cfg := &BuildConfig{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return cfg, nil
}

func resolve(cfg *BuildConfig, env Environment) (*BuildConfig, error) {
	if env == nil {
		env = OSEnvironment{}
	}

	// an empty value is treated the same as unset
	if publicPath, ok := env.LookupEnv(EnvPublicPath); ok && publicPath != "" {
		cfg.Output.PublicPath = &publicPath
	}

	if cfg.Context == "" {
		cfg.Context = "."
	}

	if len(cfg.EntryPoints) == 0 {
		return nil, missing("entryPoints")
	}
	if cfg.Output.Directory == "" {
		return nil, missing("output.directory")
	}

	return cfg, nil
}

// Marshal encodes cfg as a YAML descriptor that LoadFile accepts.
func Marshal(cfg *BuildConfig) ([]byte, error) {
	buf := new(bytes.Buffer)

	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
