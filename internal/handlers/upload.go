package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vecinet/backend/internal/logger"
	"go.uber.org/zap"
)

// UploadImage accepts a multipart image and returns its opaque reference.
// Validation mirrors the web client: image/* only, 5MB cap.
func (h *Handlers) UploadImage(c *gin.Context) {
	userID := c.GetString("user_id")

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	defer file.Close()

	if header.Size > h.maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large (max 5MB)"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file is not an image"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}
	if int64(len(data)) > h.maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large (max 5MB)"})
		return
	}

	result, err := h.images.UploadImage(c.Request.Context(), data, contentType, userID)
	if err != nil {
		logger.Log.Error("image upload failed",
			logger.WithUserID(userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": result})
}
