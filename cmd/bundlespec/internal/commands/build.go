package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlespec/internal/assets"
)

type BuildCmd struct {
	DescriptorFlags `embed:""`
	Metafile        string `help:"Where to write the esbuild metafile (default: meta.json in the output directory)" type:"path"`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := b.load(globals)
	if err != nil {
		return fmt.Errorf("failed to load descriptor: %w", err)
	}

	opts := []assets.Option{assets.WithLogger(log.Logger)}
	if b.Metafile != "" {
		opts = append(opts, assets.WithMetafile(b.Metafile))
	}

	pipeline, err := assets.NewPipeline(cfg, opts...)
	if err != nil {
		return err
	}

	report, err := pipeline.Build(ctx)
	if err != nil {
		return err
	}

	out := globals.out()
	fmt.Fprintf(out, "build %s (%s) in %s\n", report.ID, report.Hash, report.Duration.Round(time.Millisecond))
	for _, file := range report.Outputs {
		fmt.Fprintf(out, "  output    %s\n", file)
	}
	for _, file := range report.Artifacts {
		fmt.Fprintf(out, "  artifact  %s\n", file)
	}
	for _, file := range report.Compressed {
		fmt.Fprintf(out, "  sidecar   %s\n", file)
	}
	if report.Warnings > 0 {
		fmt.Fprintf(out, "%d warnings\n", report.Warnings)
	}

	return nil
}
