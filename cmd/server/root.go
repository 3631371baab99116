package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Shailesh2302/CipherChat/internal/config"
	"github.com/Shailesh2302/CipherChat/internal/logging"
)

// runtime is the state every subcommand starts from.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:          "cipherchat",
		Short:        "Anonymous messaging API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(rt.logger)
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newWorkerCmd(rt),
		newMigrateCmd(rt),
		newSeedCmd(rt),
	)
	return root
}
