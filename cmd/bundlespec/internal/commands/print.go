package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wolfeidau/bundlespec/internal/buildconfig"
)

type PrintCmd struct {
	DescriptorFlags `embed:""`
	Format          string `help:"Output format (yaml, json)" default:"yaml" enum:"yaml,json"`
}

func (p *PrintCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := p.load(globals)
	if err != nil {
		return fmt.Errorf("failed to load descriptor: %w", err)
	}

	data, err := encodeDescriptor(cfg, p.Format)
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}

	_, err = globals.out().Write(data)
	return err
}

func encodeDescriptor(cfg *buildconfig.BuildConfig, format string) ([]byte, error) {
	if format != "json" {
		return buildconfig.Marshal(cfg)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
