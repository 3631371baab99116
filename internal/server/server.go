// Package server assembles the HTTP API and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/auth"
	"github.com/Shailesh2302/CipherChat/internal/config"
	"github.com/Shailesh2302/CipherChat/internal/crypto"
	"github.com/Shailesh2302/CipherChat/internal/health"
	"github.com/Shailesh2302/CipherChat/internal/messages"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/Shailesh2302/CipherChat/internal/suggest"
	"github.com/Shailesh2302/CipherChat/internal/token"
)

const sessionName = "cipherchat_session"

// Deps are the services the router exposes.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Accounts  *account.Service
	Messages  *messages.Service
	Suggester suggest.Suggester
	Tokens    *token.JWT

	// Google sign-in is mounted only when enabled and an encryptor is set.
	GoogleEnabled bool
	Encryptor     *crypto.TokenEncryptor

	// Ready lists the dependencies checked by /ready.
	Ready map[string]health.Pinger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	cfg, logger := d.Config, d.Logger

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))

	r.GET("/health", gin.WrapF(health.Handler))
	r.GET("/ready", gin.WrapF(health.Readiness(d.Ready)))

	api := r.Group("/api")
	{
		api.POST("/sign-up", account.HandleSignUp(d.Accounts, logger))
		api.POST("/verify-code", account.HandleVerifyCode(d.Accounts, logger))
		api.GET("/check-username-unique", account.HandleCheckUsernameUnique(d.Accounts, logger))

		api.POST("/sign-in", auth.HandleSignIn(d.Accounts, d.Tokens, logger))
		api.POST("/sign-out", auth.HandleSignOut(logger))
		if d.GoogleEnabled && d.Encryptor != nil {
			api.GET("/auth/google", auth.HandleGoogleLogin)
			api.GET("/auth/google/callback", auth.HandleGoogleCallback(d.Store, d.Encryptor, cfg.PublicBaseURL, logger))
		}

		api.POST("/send-message", messages.HandleSendMessage(d.Messages, logger))
		api.POST("/suggest-messages", suggest.HandleSuggestMessages(d.Suggester, logger))
	}

	protected := api.Group("", auth.RequireAuth(d.Tokens))
	{
		protected.GET("/accept-messages", messages.HandleGetAcceptMessages(d.Messages, logger))
		protected.POST("/accept-messages", messages.HandleSetAcceptMessages(d.Messages, logger))
		protected.GET("/get-messages", messages.HandleGetMessages(d.Messages, logger))
		protected.DELETE("/delete-message/:messageid", messages.HandleDeleteMessage(d.Messages, logger))
	}

	return r
}

// Serve runs handler on addr until ctx is cancelled, then drains in-flight
// requests for up to 15 seconds.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
