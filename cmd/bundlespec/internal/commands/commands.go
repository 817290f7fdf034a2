package commands

import (
	"io"
	"os"

	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

type Globals struct {
	Debug   bool
	Version string
	// Out receives command output, logs go to stderr.
	Out io.Writer
	// Env resolves the descriptor, the process environment when nil.
	Env buildconfig.Environment
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) env() buildconfig.Environment {
	if g.Env == nil {
		return buildconfig.OSEnvironment{}
	}
	return g.Env
}

// DescriptorFlags selects the build descriptor, the built in production descriptor is used
// when no file is given.
type DescriptorFlags struct {
	Config string `help:"Path to a YAML build descriptor" short:"c" type:"path" env:"BUNDLESPEC_CONFIG"`
}

func (d DescriptorFlags) load(globals *Globals) (*buildconfig.BuildConfig, error) {
	if d.Config == "" {
		return buildconfig.Load(globals.env())
	}
	return buildconfig.LoadFile(d.Config, globals.env())
}
