package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlespec/internal/buildconfig"
	"github.com/wolfeidau/bundlespec/internal/telemetry"
)

type ValidateCmd struct {
	DescriptorFlags `embed:""`
}

func (v *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := v.load(globals)
	if err != nil {
		return fmt.Errorf("failed to load descriptor: %w", err)
	}

	res := buildconfig.Validate(cfg)
	if res.Valid() {
		fmt.Fprintln(globals.out(), "descriptor is valid")
		return nil
	}

	telemetry.GetMetrics().ViolationsTotal.Add(ctx, int64(len(res.Violations)))

	for _, violation := range res.Violations {
		fmt.Fprintln(globals.out(), violation.Error())
	}
	log.Debug().Int("violations", len(res.Violations)).Msg("Descriptor rejected")

	return fmt.Errorf("descriptor has %d violations: %w", len(res.Violations), buildconfig.ErrInvalid)
}
