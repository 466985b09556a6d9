package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/eduren/engine/config"
	"github.com/Carmen-Shannon/eduren/engine/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "eduren",
		Short: "eduRen - a first-person cube viewer",
		Long: `eduren opens a window and renders a scene of cubes through a first-person camera.

Controls (default bindings):
  W/S        move forward/back
  A/D        strafe left/right
  Arrows     look up/down/left/right
  Shift      move faster
  Esc        quit

Configuration is read from --config, ./eduren.yaml or $HOME/.eduren/config.yaml.
Any scalar setting can be overridden with EDUREN_<SECTION>_<KEY>, e.g. EDUREN_CAMERA_MOVE_SPEED.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, runViewer)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./eduren.yaml, then $HOME/.eduren/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newConfigCmd(opts), newBenchCmd(opts))
	return cmd
}

// load reads the config and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// run loads the config, sets up logging and a signal-bound context, then hands them to fn.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, cfg, logger)
}
