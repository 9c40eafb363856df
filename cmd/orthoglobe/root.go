package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orthoglobe/hal"
	"orthoglobe/internal/config"
	"orthoglobe/internal/logging"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orthoglobe",
	Short: "Interactive orthographic globe with conflict markers",
	Long: `Orthoglobe draws the Earth as an orthographic globe with colored markers
for a set of conflict regions. Drag to rotate, twist with two fingers, and
hover a marker to highlight it.

Configuration is read from a YAML file (--config), ORTHOGLOBE_* environment
variables and command-line flags, in increasing precedence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// setup loads the configuration and builds the process logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().String("script", "", `pointer script, e.g. "start 520,600; move 600,600; end"`)
	cmd.Flags().String("script-file", "", "file holding a pointer script")
}

// loadScript reads the pointer script given by --script-file and --script, in
// that order.
func loadScript(cmd *cobra.Command) (hal.Script, error) {
	var src string
	if path, _ := cmd.Flags().GetString("script-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("script file: %w", err)
		}
		src = string(data)
	}
	if inline, _ := cmd.Flags().GetString("script"); inline != "" {
		src += "\n" + inline
	}
	return hal.ParseScript(src)
}
