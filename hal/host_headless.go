package hal

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	HostConfig
	Hz    int
	Ticks uint64
	// Script feeds one pointer input per tick, before the app steps.
	Script Script
	// Snapshot, if set, receives the last presented frame as a PNG when the run
	// ends without an app error.
	Snapshot io.Writer
}

// RunHeadless runs the app without opening a window. It returns when ctx is
// done, after Ticks ticks, or when step fails.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHost(cfg.HostConfig)
	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var (
		tick uint64
		err  error
	)
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case <-t.C:
			h.ptr.flush()
			if tick < uint64(len(cfg.Script)) {
				if ev := cfg.Script[tick]; ev != nil {
					h.ptr.emit(*ev)
				}
			}
			if step != nil {
				if serr := step(); serr != nil {
					return serr
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				break loop
			}
		}
	}

	if cfg.Snapshot != nil {
		if perr := png.Encode(cfg.Snapshot, h.fb.image()); perr != nil {
			return fmt.Errorf("snapshot: %w", perr)
		}
	}
	return err
}
