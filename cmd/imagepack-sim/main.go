package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/simulator"
	"imagepack-viewer/internal/transport"
)

func main() {
	var (
		bind      = flag.String("bind", "tcp://*:5555", "ZMQ endpoint to bind the REP socket on")
		width     = flag.Int("width", 320, "Width of each simulated view")
		height    = flag.Int("height", 240, "Height of each simulated view")
		seed      = flag.Int64("seed", 0, "Noise seed (0 picks one from the clock)")
		token     = flag.String("token", transport.DefaultToken, "Request token to answer")
		logLevel  = flag.String("log-level", "info", "Log level")
		logFormat = flag.String("log-format", "console", "Log format: json or console")
	)
	flag.Parse()

	log := logger.NewLogger("simulator", logger.Options{Level: *logLevel, Format: *logFormat})

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := simulator.Listen(*bind, simulator.Options{
		Width:  *width,
		Height: *height,
		Token:  *token,
		Seed:   *seed,
		Log:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Str("bind", *bind).Msg("listen failed")
	}
	log.Info().Str("bind", *bind).Int("width", *width).Int("height", *height).Int64("seed", *seed).Msg("simulator serving")

	if err := srv.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("simulator stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Uint64("served", srv.Served()).Msg("simulator stopped")
}
