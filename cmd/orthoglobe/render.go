package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orthoglobe/app"
)

const loadTimeout = time.Minute

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the globe to a PNG file",
	Long: `Load the geography, replay an optional pointer script and write the
resulting frame as a PNG.

Examples:
  orthoglobe render -o globe.png
  orthoglobe render -o dragged.png --script "start 520,600; move 700,560; end"
  orthoglobe render -o hover.png --lambda -38.9968 --phi -34.8021 --script "hover 520,600"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return fmt.Errorf("--output is required")
		}
		a, log, err := settledApp(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		defer a.Close()

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := png.Encode(f, a.Globe().Surface().Image()); err != nil {
			return fmt.Errorf("encode %s: %w", out, err)
		}
		log.Info("wrote frame",
			zap.String("path", out),
			zap.Stringer("fidelity", a.Globe().Fidelity()),
			zap.Int("markers", len(a.Globe().Frame().Markers)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "PNG file to write")
	addScriptFlags(renderCmd)
}

// settledApp builds the app, waits for the geography and replays the script.
func settledApp(cmd *cobra.Command) (*app.App, *zap.Logger, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	script, err := loadScript(cmd)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, log, nil)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()
	if err := a.Settle(ctx); err != nil {
		a.Close()
		return nil, nil, err
	}
	a.Replay(script)
	return a, log, nil
}
