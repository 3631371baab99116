package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/respond"
	"github.com/Shailesh2302/CipherChat/internal/token"
	"github.com/Shailesh2302/CipherChat/internal/validate"
)

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// HandleSignIn checks credentials, starts a cookie session and returns a
// bearer token for clients without cookies.
func HandleSignIn(svc *account.Service, tokens *token.JWT, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := validate.SignIn.Decode(c.Request.Body, &req); err != nil {
			respond.Invalid(c, err)
			return
		}

		user, err := svc.Authenticate(c.Request.Context(), req.Identifier, req.Password)
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			respond.Fail(c, http.StatusUnauthorized, "Incorrect username or password")
			return
		case errors.Is(err, account.ErrNotVerified):
			respond.Fail(c, http.StatusForbidden, "Please verify your account before logging in")
			return
		case err != nil:
			respond.Internal(c, logger, "Error signing in", err)
			return
		}

		if err := startSession(c, user); err != nil {
			respond.Internal(c, logger, "Error signing in", err)
			return
		}

		signed, expiresAt, err := tokens.Issue(user.ID, user.Username)
		if err != nil {
			respond.Internal(c, logger, "Error signing in", err)
			return
		}

		logger.Info("User signed in", "username", user.Username)
		respond.Success(c, http.StatusOK, "Signed in successfully", gin.H{
			"token":     signed,
			"expiresAt": expiresAt,
			"user":      user,
		})
	}
}

// HandleSignOut clears the session
func HandleSignOut(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		session.Clear()

		if err := session.Save(); err != nil {
			logger.Error("Session clear error", "error", err)
		}

		respond.Success(c, http.StatusOK, "Signed out successfully", nil)
	}
}

func startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(sessionUserID, user.ID)
	session.Set(sessionUsername, user.Username)
	return session.Save()
}
