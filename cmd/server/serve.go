package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/auth"
	"github.com/Shailesh2302/CipherChat/internal/crypto"
	"github.com/Shailesh2302/CipherChat/internal/health"
	"github.com/Shailesh2302/CipherChat/internal/messages"
	"github.com/Shailesh2302/CipherChat/internal/server"
	"github.com/Shailesh2302/CipherChat/internal/streams"
	"github.com/Shailesh2302/CipherChat/internal/suggest"
	"github.com/Shailesh2302/CipherChat/internal/token"
	"github.com/Shailesh2302/CipherChat/internal/worker"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var embeddedWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt, embeddedWorker)
		},
	}
	cmd.Flags().BoolVar(&embeddedWorker, "embedded-worker", false, "also run background tasks in this process (requires REDIS_URL)")
	return cmd
}

func runServe(ctx context.Context, rt *runtime, embeddedWorker bool) error {
	cfg, logger := rt.cfg, rt.logger

	st, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	mailer := newMailer(rt)
	ready := map[string]health.Pinger{"store": st}

	var sender account.VerificationSender = mailer
	var publisher messages.EventPublisher
	if cfg.RedisURL != "" {
		queue, err := worker.NewQueue(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer queue.Close()
		sender = queue

		pub, err := streams.NewPublisher(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
		ready["redis"] = pub
	} else {
		logger.Warn("REDIS_URL not set, verification emails are sent inline and message events are disabled")
	}

	accounts := newAccounts(rt, st, sender)

	if embeddedWorker {
		if cfg.RedisURL == "" {
			return errors.New("--embedded-worker requires REDIS_URL")
		}
		deps := worker.Deps{Mailer: mailer, Purger: newAccounts(rt, st, mailer), Logger: logger}
		stopWorker, err := worker.Start(cfg, deps)
		if err != nil {
			return err
		}
		defer stopWorker()

		stopBackground, err := startBackground(rt, st, mailer)
		if err != nil {
			return err
		}
		defer stopBackground()
	}

	var enc *crypto.TokenEncryptor
	if cfg.EncryptionKey != "" {
		enc, err = crypto.NewTokenEncryptor(cfg.EncryptionKey)
		if err != nil {
			return err
		}
	}
	googleEnabled := auth.InitProviders(cfg, logger)
	if googleEnabled && enc == nil {
		logger.Warn("ENCRYPTION_KEY not set, Google sign-in is disabled")
	}

	prompt, err := suggest.LoadPrompt(cfg.Suggest.PromptFile)
	if err != nil {
		return err
	}

	router := server.NewRouter(server.Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Accounts: accounts,
		Messages: messages.NewService(st, publisher, logger),
		Suggester: suggest.NewClient(
			cfg.Suggest.BaseURL,
			cfg.Suggest.Model,
			cfg.Suggest.APIKey,
			prompt,
			cfg.Suggest.Timeout,
			cfg.Suggest.StubMode,
		),
		Tokens:        token.NewJWT(cfg.SessionSecret, token.DefaultTTL),
		GoogleEnabled: googleEnabled,
		Encryptor:     enc,
		Ready:         ready,
	})

	return server.Serve(ctx, ":"+cfg.Port, router, logger)
}
