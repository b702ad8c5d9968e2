// Command quadsim runs quadrotor vehicles headless at a fixed timestep and logs their telemetry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akmonengine/quadsim/config"
	"github.com/akmonengine/quadsim/internal/logging"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing quadsim.yaml")
	steps := flag.Int("steps", 0, "Number of fixed steps to run, overrides sim.steps when > 0")
	realtime := flag.Bool("realtime", false, "Pace the fixed steps on the wall clock")
	flag.Parse()

	loadErr := config.Load(*configDir)
	if loadErr != nil && !config.IsNotFound(loadErr) {
		fmt.Fprintln(os.Stderr, loadErr)
		os.Exit(1)
	}

	settings, err := config.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(settings.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if loadErr != nil {
		logger.Warn("no config file found, using defaults", zap.String("dir", *configDir))
	}

	sim, err := newSimulation(settings, logger)
	if err != nil {
		logger.Fatal("cannot build simulation", zap.Error(err))
	}

	n := settings.Sim.Steps
	if *steps > 0 {
		n = *steps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("simulation started",
		zap.Int("vehicles", len(sim.vehicles)),
		zap.Int("steps", n),
		zap.Float64("fixedDelta", settings.Sim.FixedDelta),
		zap.Bool("realtime", *realtime),
	)

	if *realtime {
		err = sim.runRealtime(ctx, n)
	} else {
		err = sim.runSteps(ctx, n)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation stopped", zap.Error(err))
	}

	for _, v := range sim.vehicles {
		sim.logTelemetry(v)
	}
	logger.Info("simulation finished", zap.Uint64("steps", sim.scheduler.Steps()))
}
