package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/respond"
	"github.com/Shailesh2302/CipherChat/internal/validate"
)

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// HandleSignUp registers a user and sends the verification code.
func HandleSignUp(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpRequest
		if err := validate.SignUp.Decode(c.Request.Body, &req); err != nil {
			respond.Invalid(c, err)
			return
		}

		_, err := svc.SignUp(c.Request.Context(), req.Username, req.Email, req.Password)
		switch {
		case err == nil:
			respond.Success(c, http.StatusCreated, "User registered successfully. Please verify your account.", nil)
		case errors.Is(err, ErrUsernameTaken):
			respond.Fail(c, http.StatusBadRequest, "Username is already taken")
		case errors.Is(err, ErrEmailTaken):
			respond.Fail(c, http.StatusBadRequest, "User already exists with this email")
		case errors.Is(err, ErrSendVerification):
			respond.Internal(c, logger, "Error sending verification email", err)
		default:
			respond.Internal(c, logger, "Error registering user", err)
		}
	}
}

// HandleVerifyCode consumes a verification code.
func HandleVerifyCode(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyCodeRequest
		if err := validate.VerifyCode.Decode(c.Request.Body, &req); err != nil {
			respond.Invalid(c, err)
			return
		}

		outcome, err := svc.Verify(c.Request.Context(), req.Username, req.Code)
		if err != nil {
			respond.Internal(c, logger, "Error verifying user", err)
			return
		}

		switch outcome {
		case OutcomeNotFound:
			respond.Fail(c, http.StatusNotFound, "User not found")
		case OutcomeAlreadyVerified:
			respond.Fail(c, http.StatusBadRequest, "User is already verified")
		case OutcomeVerified:
			respond.Success(c, http.StatusOK, "Account verified successfully", nil)
		case OutcomeExpired:
			respond.Fail(c, http.StatusBadRequest, "Verification code has expired. Please sign up again to get a new code.")
		default:
			respond.Fail(c, http.StatusBadRequest, "Incorrect verification code")
		}
	}
}

// HandleCheckUsernameUnique answers GET ?username= while a visitor types.
func HandleCheckUsernameUnique(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := NormalizeUsername(c.Query("username"))
		if err := validate.Username.Check(map[string]interface{}{"username": username}); err != nil {
			respond.Invalid(c, err)
			return
		}

		available, err := svc.IsUsernameAvailable(c.Request.Context(), username)
		if err != nil {
			respond.Internal(c, logger, "Error checking username", err)
			return
		}
		if !available {
			respond.Fail(c, http.StatusBadRequest, "Username is already taken")
			return
		}
		respond.Success(c, http.StatusOK, "Username is unique", nil)
	}
}
