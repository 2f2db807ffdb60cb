package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/config"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/observability"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "friendgraph <command>",
		Short:        "Social friend graph service and CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML or TOML config file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	root.AddCommand(
		newServeCmd(a),
		newUserCmd(a),
		newFriendCmd(a),
		newFriendsCmd(a),
		newPathCmd(a),
		newGraphCmd(a),
	)
	return root
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, store friendgraph.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background(), store); err != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}()
	return fn(ctx, store)
}
