package storage

import (
	"context"
)

// UploadResult contains the result of an image upload
type UploadResult struct {
	Key  string `json:"key,omitempty"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ImageStore stores post and avatar images and hands back an opaque
// reference. Posts keep only the reference; the store is an external
// collaborator as far as the marketplace core is concerned.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, contentType, userID string) (*UploadResult, error)
	DeleteImage(ctx context.Context, ref string) error
}

// Ensure implementations satisfy ImageStore
var (
	_ ImageStore = (*S3Store)(nil)
	_ ImageStore = (*InlineStore)(nil)
)
