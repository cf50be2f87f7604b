package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/middleware"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/internal/storage"
	"github.com/tradehub/pkg/response"
)

// respondError maps a service error onto the response envelope.
// Unexpected errors are logged with op and hidden from the client.
func respondError(c *gin.Context, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(c, verr.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, service.ErrTradeNotFound):
		response.NotFound(c, "Trade not found")
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, "Notification not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		response.NotFound(c, "Avatar not found")
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(c, http.StatusServiceUnavailable, "Avatar storage is disabled")
	default:
		middleware.LogError("%s: %v", op, err)
		response.InternalError(c, "Server error")
	}
}

func invalidBody(c *gin.Context) {
	response.BadRequest(c, "Invalid request body")
}
