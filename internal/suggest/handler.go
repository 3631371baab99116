package suggest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/respond"
)

// Suggester produces message suggestions.
type Suggester interface {
	Suggest(ctx context.Context) (string, error)
}

// HandleSuggestMessages returns conversation starters for the public page.
func HandleSuggestMessages(s Suggester, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		suggestion, err := s.Suggest(c.Request.Context())
		if err != nil {
			respond.Internal(c, logger, "Failed to generate questions", err)
			return
		}
		respond.Success(c, http.StatusOK, "Suggestions generated", gin.H{"suggestion": suggestion})
	}
}
