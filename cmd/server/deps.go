package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/database"
	"github.com/Shailesh2302/CipherChat/internal/mail"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/Shailesh2302/CipherChat/internal/store/memory"
	mongostore "github.com/Shailesh2302/CipherChat/internal/store/mongo"
	"github.com/Shailesh2302/CipherChat/internal/store/postgres"
	"github.com/Shailesh2302/CipherChat/internal/streams"
	"github.com/Shailesh2302/CipherChat/internal/worker"
)

// openStore connects the backend DATABASE_URL points at. Postgres schemas
// are migrated on connect.
func openStore(ctx context.Context, rt *runtime) (store.Store, error) {
	cfg, logger := rt.cfg, rt.logger

	switch cfg.StoreKind() {
	case "postgres":
		db, err := database.Init(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, logger); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		logger.Info("Using postgres store")
		return postgres.New(db), nil
	case "mongo":
		s, err := mongostore.Connect(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info("Using mongo store", "database", cfg.MongoDatabase)
		return s, nil
	case "memory":
		logger.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

func newMailer(rt *runtime) *mail.Mailer {
	return mail.NewMailer(
		mail.NewTransport(rt.cfg.Mail, rt.logger),
		rt.cfg.PublicBaseURL,
		rt.cfg.Verification.CodeTTL,
	)
}

func newAccounts(rt *runtime, users store.UserStore, sender account.VerificationSender) *account.Service {
	return account.NewService(users, account.NewCodeGenerator(rt.cfg.Verification.CodeTTL), sender, rt.logger)
}

// startBackground starts the scheduler and the message event consumer. The
// Asynq server itself is started by the caller.
func startBackground(rt *runtime, s store.Store, mailer *mail.Mailer) (stop func(), err error) {
	stopScheduler, err := worker.StartScheduler(rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}

	consumerName, _ := os.Hostname()
	if consumerName == "" {
		consumerName = "cipherchat-worker"
	}
	stopConsumer, err := streams.StartEventConsumer(
		rt.cfg.RedisURL,
		consumerName,
		streams.HandleMessageReceived(s, mailer, rt.logger),
		rt.logger,
	)
	if err != nil {
		stopScheduler()
		return nil, err
	}

	return func() {
		stopConsumer()
		stopScheduler()
	}, nil
}
