package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/config"
	"github.com/Shailesh2302/CipherChat/internal/crypto"
	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

const providerGoogle = "google"

// ErrNoLinkedAccount is returned when an OAuth email does not belong to a
// verified account. Google sign-in never creates accounts.
var ErrNoLinkedAccount = errors.New("no verified account for this email")

// IdentityLinker is the part of the store Google sign-in needs.
type IdentityLinker interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertIdentity(ctx context.Context, userID string, identity *models.AuthIdentity) error
}

// InitProviders initializes Goth OAuth providers. It reports whether Google
// sign-in is available.
func InitProviders(cfg *config.Config, logger *slog.Logger) bool {
	// Gothic uses its own gorilla/sessions store separate from gin-contrib/sessions.
	// The default has Secure=true which breaks localhost (plain HTTP).
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	if cfg.Google.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in is disabled")
		return false
	}

	goth.UseProviders(
		google.New(
			cfg.Google.ClientID,
			cfg.Google.ClientSecret,
			cfg.Google.CallbackURL,
			"email",
			"profile",
		),
	)

	logger.Info("Goth providers initialized", "providers", providerGoogle)
	return true
}

// HandleGoogleLogin initiates the Google OAuth flow
func HandleGoogleLogin(c *gin.Context) {
	withProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleGoogleCallback completes the OAuth flow, links the identity to the
// matching verified account and starts a session.
func HandleGoogleCallback(users IdentityLinker, enc *crypto.TokenEncryptor, appURL string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		withProvider(c)

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			logger.Warn("Google auth error", "error", err)
			c.Redirect(http.StatusFound, appURL+"/sign-in?error=auth_failed")
			return
		}

		user, err := LinkIdentity(c.Request.Context(), users, enc, gothUser)
		if errors.Is(err, ErrNoLinkedAccount) {
			c.Redirect(http.StatusFound, appURL+"/sign-in?error=no_account")
			return
		}
		if err != nil {
			logger.Error("Failed to link Google identity", "error", err)
			c.Redirect(http.StatusFound, appURL+"/sign-in?error=link_failed")
			return
		}

		if err := startSession(c, user); err != nil {
			logger.Error("Session save error", "error", err)
			c.Redirect(http.StatusFound, appURL+"/sign-in?error=session_failed")
			return
		}

		logger.Info("User authenticated with Google", "username", user.Username)
		c.Redirect(http.StatusFound, appURL+"/dashboard")
	}
}

// LinkIdentity stores gothUser as an identity of the verified account that
// owns the same email. Tokens are sealed for the provider user id.
func LinkIdentity(ctx context.Context, users IdentityLinker, enc *crypto.TokenEncryptor, gothUser goth.User) (*models.User, error) {
	user, err := users.FindUserByEmail(ctx, account.NormalizeEmail(gothUser.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoLinkedAccount
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !user.IsVerified {
		return nil, ErrNoLinkedAccount
	}

	access, err := enc.Seal(gothUser.AccessToken, gothUser.UserID)
	if err != nil {
		return nil, err
	}
	refresh, err := enc.Seal(gothUser.RefreshToken, gothUser.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := json.Marshal(gothUser.RawData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	identity := &models.AuthIdentity{
		Provider:       providerGoogle,
		ProviderUserID: gothUser.UserID,
		AccessToken:    access,
		RefreshToken:   refresh,
		Profile:        profile,
	}
	if !gothUser.ExpiresAt.IsZero() {
		expiry := gothUser.ExpiresAt.UTC().Truncate(time.Second)
		identity.TokenExpiry = &expiry
	}

	if err := users.UpsertIdentity(ctx, user.ID, identity); err != nil {
		return nil, fmt.Errorf("failed to save identity: %w", err)
	}
	return user, nil
}

// Gothic requires the "provider" query parameter
func withProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", providerGoogle)
	c.Request.URL.RawQuery = q.Encode()
}
