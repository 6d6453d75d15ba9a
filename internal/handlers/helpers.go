package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/vecinet/backend/internal/errors"
)

// respondError writes an APIError as JSON with its mapped status code.
// Unknown errors become a 500 without leaking internals into the message.
func respondError(c *gin.Context, err error) {
	apiErr := apierrors.AsAPIError(err)
	if apiErr.Code == apierrors.ErrInternalError {
		c.JSON(apiErr.Status, gin.H{"error": gin.H{
			"code":    apiErr.Code,
			"message": "internal error",
		}})
		return
	}
	c.JSON(apiErr.Status, gin.H{"error": gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
		"field":   apiErr.Field,
	}})
}

func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return defaultValue
}

func parseFloat(s string, defaultValue float64) float64 {
	if s == "" {
		return defaultValue
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultValue
}
