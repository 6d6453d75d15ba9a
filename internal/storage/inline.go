package storage

import (
	"context"
	"encoding/base64"
	"fmt"
)

// InlineStore encodes images as base64 data URLs, the zero-infrastructure
// mode the web app shipped with. The "upload" result is the data URL
// itself; posts carry the whole image inline.
type InlineStore struct{}

// NewInlineStore creates an inline data-URL image store
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

// UploadImage encodes the image into a data URL.
func (s *InlineStore) UploadImage(ctx context.Context, data []byte, contentType, userID string) (*UploadResult, error) {
	if contentType == "" {
		return nil, fmt.Errorf("missing content type")
	}
	url := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return &UploadResult{
		URL:  url,
		Size: int64(len(data)),
	}, nil
}

// DeleteImage is a no-op: data URLs have no stored object to remove.
func (s *InlineStore) DeleteImage(ctx context.Context, ref string) error {
	return nil
}
