package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romangod6/city-guide/internal/auth"
	"github.com/romangod6/city-guide/internal/content"
	"github.com/romangod6/city-guide/internal/storage"
)

// respond writes the {message, ...data} envelope.
func respond(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// writeError maps service errors to status codes. subject names the
// resource in not-found messages.
func writeError(c *gin.Context, subject string, err error) {
	var inUse *content.CategoryInUseError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		respond(c, http.StatusUnauthorized, "Authentication required", nil)
	case errors.As(err, &inUse):
		respond(c, http.StatusConflict, inUse.Error(), gin.H{"establishments": inUse.Establishments})
	case errors.Is(err, content.ErrNotFound):
		respond(c, http.StatusNotFound, subject+" not found", nil)
	case errors.Is(err, content.ErrDuplicateCategory), errors.Is(err, storage.ErrDuplicateID):
		respond(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, content.ErrInvalidInput):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	default:
		_ = c.Error(err)
		respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
