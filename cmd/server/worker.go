package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Shailesh2302/CipherChat/internal/worker"
)

func newWorkerCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run background tasks: queued emails, the purge schedule and message notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.RedisURL == "" {
				return errors.New("worker requires REDIS_URL")
			}
			if err := rt.cfg.RequireSharedStore("worker"); err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			mailer := newMailer(rt)
			stopBackground, err := startBackground(rt, st, mailer)
			if err != nil {
				return err
			}
			defer stopBackground()

			// Run blocks and handles its own signal interception
			return worker.Run(rt.cfg, worker.Deps{
				Mailer: mailer,
				Purger: newAccounts(rt, st, mailer),
				Logger: rt.logger,
			})
		},
	}
}
