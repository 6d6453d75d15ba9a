package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/posts"
	"go.uber.org/zap"
)

// CreatePost creates a new listing owned by the authenticated user
func (h *Handlers) CreatePost(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Category    string   `json:"category" binding:"required"`
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Images      []string `json:"images"`
		Coordinates struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"coordinates" binding:"required"`
		PostalCode string `json:"postal_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), userID, posts.CreateInput{
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Latitude:    req.Coordinates.Lat,
		Longitude:   req.Coordinates.Lng,
		PostalCode:  req.PostalCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post by ID
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdatePost applies partial edits to a post the caller owns
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Images      *[]string `json:"images"`
		Category    *string   `json:"category"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), userID, posts.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost hard-removes a post the caller owns
func (h *Handlers) DeletePost(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.posts.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	h.feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ExtendPost resets the expiration of a post the caller owns
func (h *Handlers) ExtendPost(c *gin.Context) {
	userID := c.GetString("user_id")

	post, err := h.posts.Extend(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.feed.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// GetExpiringPosts returns the caller's posts inside the extend-me window
func (h *Handlers) GetExpiringPosts(c *gin.Context) {
	userID := c.GetString("user_id")

	expiring, err := h.posts.ListExpiringSoon(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": expiring})
}

// ReportPost records a report against a post. A repeat report from the
// same caller is a 200 with already_reported set, not an error.
func (h *Handlers) ReportPost(c *gin.Context) {
	userID := c.GetString("user_id")
	postID := c.Param("id")

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional; a bare POST reports without a reason.
	_ = c.ShouldBindJSON(&req)

	outcome, err := h.moderation.Report(c.Request.Context(), postID, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome.PostRemoved {
		h.feed.Invalidate(c.Request.Context())
		logger.Log.Warn("post removed by moderation",
			logger.WithPostID(postID),
			zap.String("reporter_id", userID),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"already_reported": outcome.AlreadyReported,
	})
}
