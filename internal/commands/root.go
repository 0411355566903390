// Package commands implements the pagebricks command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/pagebricks/app"
	"github.com/gaborage/pagebricks/config"
	"github.com/gaborage/pagebricks/logger"
)

// GlobalOptions holds flags shared by every command.
type GlobalOptions struct {
	ConfigFiles []string
	LogLevel    string
}

// NewRootCommand creates the pagebricks command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "pagebricks",
		Short: "Render and serve flat-file pages with a namespaced page cache",
		Long: `pagebricks turns markup pages into HTML through a cached content pipeline.

It serves pages over HTTP, renders single files, and maintains the cache
storage locations from the command line.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVarP(&opts.ConfigFiles, "config", "c", nil, "Configuration files, loaded in order")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Override log.level")

	root.AddCommand(
		NewCacheCommand(opts),
		NewRenderCommand(opts),
		NewServeCommand(opts),
		NewVersionCommand(version),
	)
	return root
}

// loadApp builds the application for cmd. One-shot commands force the
// durable cache driver since a volatile one dies with the process.
func loadApp(cmd *cobra.Command, opts *GlobalOptions, oneShot bool) (*app.App, error) {
	overrides := map[string]any{}
	if oneShot {
		overrides["cache.cli_compatibility"] = true
	}
	if opts.LogLevel != "" {
		overrides["log.level"] = opts.LogLevel
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{Files: opts.ConfigFiles, Overrides: overrides})
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
	a, err := app.NewWithOptions(app.Options{Config: cfg, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}
