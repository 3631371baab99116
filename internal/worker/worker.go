// Package worker runs the Asynq background tasks: queued verification
// emails and the scheduled purge of abandoned sign-ups.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Shailesh2302/CipherChat/internal/config"
)

// VerificationMailer delivers verification emails.
type VerificationMailer interface {
	SendVerification(ctx context.Context, email, username, code string) error
}

// Purger deletes unverified accounts older than a retention window.
type Purger interface {
	PurgeUnverified(ctx context.Context, retention time.Duration) (int64, error)
}

// Deps are the collaborators task handlers need.
type Deps struct {
	Mailer VerificationMailer
	Purger Purger
	Logger *slog.Logger
}

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, deps Deps) error {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, deps Deps) (stop func(), err error) {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, deps Deps) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := deps.Logger
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := NewMux(deps, cfg.Verification.UnverifiedRetention)

	logger.Info("Worker starting", "concurrency", 5)
	return srv, mux, nil
}

// NewMux routes every task type to its handler.
func NewMux(deps Deps, retention time.Duration) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSendVerification, handleSendVerification(deps.Logger, deps.Mailer))
	mux.HandleFunc(TaskPurgeUnverified, handlePurgeUnverified(deps.Logger, deps.Purger, retention))
	return mux
}

func handleSendVerification(logger *slog.Logger, mailer VerificationMailer) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload VerificationPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}
		if payload.Email == "" || payload.Code == "" {
			return fmt.Errorf("incomplete payload: %w", asynq.SkipRetry)
		}

		if err := mailer.SendVerification(ctx, payload.Email, payload.Username, payload.Code); err != nil {
			// SMTP errors are retryable
			return fmt.Errorf("failed to send verification email: %w", err)
		}

		logger.Info("Verification email sent", "username", payload.Username)
		return nil
	}
}

func handlePurgeUnverified(logger *slog.Logger, purger Purger, retention time.Duration) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := purger.PurgeUnverified(ctx, retention)
		if err != nil {
			return err
		}
		logger.Info("Purged unverified accounts", "deleted", n, "retention", retention.String())
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Payloads can carry verification codes; only the type is logged.
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
			)
		}
	}
}
