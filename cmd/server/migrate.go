package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (postgres) or create indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			// openStore migrates postgres and indexes mongo on connect.
			st, err := openStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			rt.logger.Info("Schema is up to date", "store", rt.cfg.StoreKind())
			return st.Close(context.Background())
		},
	}
}
