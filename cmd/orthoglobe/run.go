package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orthoglobe/app"
	"orthoglobe/hal"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive globe",
	Long: `Open the globe in a desktop window, or run it without one.

Examples:
  orthoglobe run
  orthoglobe run --land-coarse https://example.org/land-110m.json --metrics-addr :9090
  orthoglobe run --headless --ticks 120 --script "start 520,600; move 600,600; end" --snapshot out.png`,
	RunE: runGlobe,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("headless", false, "run without a window")
	runCmd.Flags().String("snapshot", "", "headless only: write the last frame to this PNG file")
	runCmd.Flags().Float64("zoom", 1, "window size relative to the surface")
	addScriptFlags(runCmd)
}

func runGlobe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a, err := app.New(cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	// Only the headless loop watches the context; a window is closed by the user.
	headless, _ := cmd.Flags().GetBool("headless")
	sigCtx := cmd.Context()
	if headless {
		var stop context.CancelFunc
		sigCtx, stop = signal.NotifyContext(sigCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}
	g, gctx := errgroup.WithContext(sigCtx)
	ctx, cancel := context.WithCancel(gctx)
	defer cancel()
	g.Go(func() error { return a.ServeMetrics(ctx) })

	runErr := func() error {
		if !headless {
			zoom, _ := cmd.Flags().GetFloat64("zoom")
			wc := hal.WindowConfig{HostConfig: a.HostConfig(), Title: "orthoglobe", Zoom: zoom}
			return hal.RunWindow(wc, func(h hal.HAL) func() error { return a.Bind(ctx, h) })
		}

		script, err := loadScript(cmd)
		if err != nil {
			return err
		}
		// Scripted gestures are only accepted once the geography is in.
		if err := a.Settle(ctx); err != nil && a.LoadErr() == nil {
			return err
		}
		hc := hal.HeadlessConfig{
			HostConfig: a.HostConfig(),
			Hz:         cfg.Headless.Hz,
			Ticks:      uint64(cfg.Headless.Ticks),
			Script:     script,
		}
		if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			defer f.Close()
			hc.Snapshot = f
		}
		return hal.RunHeadless(ctx, func(h hal.HAL) func() error { return a.Bind(ctx, h) }, hc)
	}()

	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if errors.Is(runErr, context.Canceled) && sigCtx.Err() != nil {
		log.Info("interrupted")
		return nil
	}
	if err := a.LoadErr(); err != nil && runErr == nil {
		log.Warn("globe stayed empty", zap.Error(err))
	}
	return runErr
}
