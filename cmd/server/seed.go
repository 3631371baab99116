package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Shailesh2302/CipherChat/internal/database"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a verified development user with sample messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.IsProduction() {
				return errors.New("refusing to seed a production environment")
			}
			if err := rt.cfg.RequireSharedStore("seed"); err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			return database.SeedDevData(cmd.Context(), st, rt.logger)
		},
	}
}
