package messages

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/auth"
	"github.com/Shailesh2302/CipherChat/internal/respond"
	"github.com/Shailesh2302/CipherChat/internal/validate"
)

type sendMessageRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

type acceptMessagesRequest struct {
	AcceptMessages bool `json:"acceptMessages"`
}

// HandleSendMessage accepts an anonymous message. No authentication.
func HandleSendMessage(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := validate.SendMessage.Decode(c.Request.Body, &req); err != nil {
			respond.Invalid(c, err)
			return
		}

		outcome, _, err := svc.Submit(c.Request.Context(), req.Username, req.Content)
		if err != nil {
			respond.Internal(c, logger, "Error sending message", err)
			return
		}

		switch outcome {
		case SubmitUserNotFound:
			respond.Fail(c, http.StatusNotFound, "User not found")
		case SubmitNotAccepting:
			respond.Fail(c, http.StatusBadRequest, "User is not accepting messages")
		default:
			respond.Success(c, http.StatusCreated, "Message sent successfully", nil)
		}
	}
}

// HandleGetMessages lists the caller's messages, newest first.
func HandleGetMessages(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)

		msgs, err := svc.List(c.Request.Context(), p)
		if errors.Is(err, ErrUserNotFound) {
			respond.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			respond.Internal(c, logger, "Error getting messages", err)
			return
		}

		respond.Success(c, http.StatusOK, "Messages fetched successfully", gin.H{"messages": msgs})
	}
}

// HandleDeleteMessage removes one of the caller's messages.
func HandleDeleteMessage(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)

		err := svc.Delete(c.Request.Context(), p, c.Param("messageid"))
		if errors.Is(err, ErrMessageNotFound) {
			respond.Fail(c, http.StatusNotFound, "Message not found or already deleted")
			return
		}
		if err != nil {
			respond.Internal(c, logger, "Error deleting message", err)
			return
		}

		respond.Success(c, http.StatusOK, "Message deleted", nil)
	}
}

// HandleSetAcceptMessages updates the caller's acceptance flag.
func HandleSetAcceptMessages(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)

		var req acceptMessagesRequest
		if err := validate.AcceptMessages.Decode(c.Request.Body, &req); err != nil {
			respond.Invalid(c, err)
			return
		}

		user, err := svc.SetAccepting(c.Request.Context(), p, req.AcceptMessages)
		if errors.Is(err, ErrUserNotFound) {
			respond.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			respond.Internal(c, logger, "Error updating message acceptance status", err)
			return
		}

		respond.Success(c, http.StatusOK, "Message acceptance status updated successfully", gin.H{"user": user})
	}
}

// HandleGetAcceptMessages reports the caller's acceptance flag.
func HandleGetAcceptMessages(svc *Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)

		accepting, err := svc.GetAccepting(c.Request.Context(), p)
		if errors.Is(err, ErrUserNotFound) {
			respond.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			respond.Internal(c, logger, "Error retrieving message acceptance status", err)
			return
		}

		respond.Success(c, http.StatusOK, "Message acceptance status retrieved", gin.H{"isAcceptingMessages": accepting})
	}
}
