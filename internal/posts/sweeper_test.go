package posts

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vecinet/backend/internal/models"
)

func TestSweeperRunsImmediatelyOnStart(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, DefaultOptions())

	post := &models.Post{
		ID:          uuid.New().String(),
		UserID:      uuid.New().String(),
		Category:    models.CategoryOffer,
		Title:       "Caducado hace tiempo",
		Description: "Descripción de prueba",
		ExpiresAt:   time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, db.Create(post).Error)

	sweeper := NewSweeper(service, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		var got models.Post
		if err := db.First(&got, "id = ?", post.ID).Error; err != nil {
			return false
		}
		return got.IsExpired
	}, 2*time.Second, 10*time.Millisecond)
}
