package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/bundlespec/cmd/bundlespec/internal/commands"
	"github.com/wolfeidau/bundlespec/internal/logger"
	"github.com/wolfeidau/bundlespec/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Validate commands.ValidateCmd `cmd:"" help:"Check a build descriptor and list every violation"`
		Plan     commands.PlanCmd     `cmd:"" help:"Show the directives a build would apply"`
		Print    commands.PrintCmd    `cmd:"" help:"Print the resolved build descriptor"`
		Build    commands.BuildCmd    `cmd:"" help:"Bundle assets and render artifact templates"`
		Debug    bool                 `help:"Enable debug mode."`
		Tracing  bool                 `help:"Export traces and metrics over OTLP." env:"BUNDLESPEC_TRACING"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	shutdown := func(context.Context) error { return nil }
	if cli.Tracing {
		var err error
		shutdown, err = telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "bundlespec",
			Version:     version,
			SampleRatio: 1,
		})
		cmd.FatalIfErrorf(err)
	}

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Out: os.Stdout})

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := shutdown(flushCtx); serr != nil {
		log.Warn().Err(serr).Msg("Failed to flush telemetry")
	}

	cmd.FatalIfErrorf(err)
}
