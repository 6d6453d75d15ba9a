package handlers

import (
	"github.com/vecinet/backend/internal/feed"
	"github.com/vecinet/backend/internal/moderation"
	"github.com/vecinet/backend/internal/posts"
	"github.com/vecinet/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	posts      *posts.Service
	moderation *moderation.Service
	feed       *feed.Engine
	images     storage.ImageStore

	maxImageBytes int64
}

// NewHandlers creates a new handlers instance
func NewHandlers(postService *posts.Service, moderationService *moderation.Service, feedEngine *feed.Engine, images storage.ImageStore) *Handlers {
	return &Handlers{
		posts:         postService,
		moderation:    moderationService,
		feed:          feedEngine,
		images:        images,
		maxImageBytes: 5 * 1024 * 1024,
	}
}

// SetMaxImageBytes overrides the per-image upload cap.
func (h *Handlers) SetMaxImageBytes(n int64) {
	if n > 0 {
		h.maxImageBytes = n
	}
}
