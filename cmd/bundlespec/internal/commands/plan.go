package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/bundlespec/internal/assets"
)

type PlanCmd struct {
	DescriptorFlags `embed:""`
}

func (p *PlanCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := p.load(globals)
	if err != nil {
		return fmt.Errorf("failed to load descriptor: %w", err)
	}

	pipeline, err := assets.NewPipeline(cfg)
	if err != nil {
		return err
	}

	for i, step := range pipeline.Plan() {
		fmt.Fprintf(globals.out(), "%2d. %s\n", i+1, step)
	}

	return nil
}
