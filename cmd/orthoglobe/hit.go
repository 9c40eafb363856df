package main

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"
)

// hitCmd represents the hit command
var hitCmd = &cobra.Command{
	Use:   "hit X Y",
	Short: "Report the marker drawn at a pixel",
	Long: `Render the globe, replay an optional pointer script and print the name of
the marker at pixel (X, Y), or "none".

Examples:
  orthoglobe hit 520 600 --lambda -38.9968 --phi -34.8021
  orthoglobe hit 520 600 --hit-mode index`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("x: %w", err)
		}
		y, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("y: %w", err)
		}
		a, log, err := settledApp(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck
		defer a.Close()

		name := "none"
		if m, ok := a.Globe().HitTest(r2.Point{X: x, Y: y}); ok {
			name = m.Name
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hitCmd)
	addScriptFlags(hitCmd)
}
