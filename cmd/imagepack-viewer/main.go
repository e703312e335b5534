package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"imagepack-viewer/internal/config"
	"imagepack-viewer/internal/logger"
	"imagepack-viewer/internal/output"
	"imagepack-viewer/internal/processing"
	"imagepack-viewer/internal/server"
	"imagepack-viewer/internal/simulator"
	"imagepack-viewer/internal/transport"
	"imagepack-viewer/internal/types"
	"imagepack-viewer/internal/viewer"
)

const debugEndpoint = "inproc://imagepack-sim"

func main() {
	cfg, err := config.Load(os.Args[1:], nil)
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "imagepack-viewer: %v\n", err)
		config.Usage(os.Stderr)
		os.Exit(2)
	}

	runID := uuid.NewString()
	log := logger.NewLogger("viewer", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID, log); err != nil {
		var se *viewer.StageError
		if errors.As(err, &se) {
			log.Error().Err(se.Err).Str("stage", string(se.Stage)).Msg("viewer stopped")
		} else {
			log.Error().Err(err).Msg("viewer stopped")
		}
		stop()
		os.Exit(1)
	}
	log.Info().Msg("viewer stopped")
}

func run(ctx context.Context, cfg config.AppConfig, runID string, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	endpoint := cfg.Endpoint
	if cfg.Debug {
		endpoint = debugEndpoint
		sim, err := simulator.Listen(endpoint, simulator.Options{
			Width:  cfg.SimWidth,
			Height: cfg.SimHeight,
			Token:  cfg.RequestToken,
			Seed:   time.Now().UnixNano(),
			Log:    log.With("component", "simulator"),
		})
		if err != nil {
			return fmt.Errorf("start simulator: %w", err)
		}
		g.Go(func() error { return sim.Serve(ctx) })
		log.Info().Str("endpoint", endpoint).Int("width", cfg.SimWidth).Int("height", cfg.SimHeight).Msg("debug simulator running")
	}

	client, err := transport.Dial(transport.Config{
		Endpoint: endpoint,
		Token:    cfg.RequestToken,
		Timeout:  cfg.RecvTimeout,
	}, transport.WithLogger(log.With("component", "transport")))
	if err != nil {
		return err
	}
	defer client.Close()

	runTimestamp := processing.Timestamp()
	options := []viewer.Option{
		viewer.WithLogger(log.With("component", "loop")),
		viewer.WithSnapshotter(viewer.FileSnapshotter{
			Dir:          cfg.SnapshotDir,
			RunTimestamp: runTimestamp,
			CBOR:         cfg.SnapshotCBOR,
		}),
	}
	if cfg.RawLogEnabled {
		writer, err := output.NewRawLogWriter(cfg.RawLogDir, "replies_"+runID[:8])
		if err != nil {
			return fmt.Errorf("start raw log: %w", err)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Warn().Err(err).Msg("raw log close failed")
			}
		}()
		log.Info().Str("path", writer.Path()).Msg("recording replies")
		options = append(options, viewer.WithRecorder(writer))
	}

	var loop *viewer.Loop
	statusFn := func() map[string]any {
		status := loop.Status()
		status["endpoint"] = client.Endpoint()
		status["reconnects"] = client.Reconnects()
		status["run_id"] = runID
		return status
	}
	configFn := func() types.UIConfig {
		return types.UIConfig{
			Type:         "config",
			TargetHeight: cfg.TargetHeight,
			Endpoint:     client.Endpoint(),
			Delay:        cfg.Delay.String(),
			RunID:        runID,
		}
	}
	srv := server.New(cfg, log.With("component", "server"), statusFn, configFn)
	options = append(options, viewer.WithStatsPublisher(srv))
	loop = viewer.NewLoop(client, srv, viewer.Options{
		TargetHeight: cfg.TargetHeight,
		Delay:        cfg.Delay,
		OnError:      cfg.OnError,
	}, options...)

	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		defer cancel()
		return loop.Run(ctx)
	})

	log.Info().
		Str("endpoint", endpoint).
		Int("target_height", cfg.TargetHeight).
		Dur("delay", cfg.Delay).
		Str("on_error", cfg.OnError).
		Msgf("viewer at http://localhost:%d", cfg.Port)
	return g.Wait()
}
