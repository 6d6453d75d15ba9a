package email

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecinet/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingSender struct {
	sent map[string][]models.Post
}

func (r *recordingSender) SendExpiryReminder(ctx context.Context, toEmail, name string, posts []models.Post) error {
	if r.sent == nil {
		r.sent = map[string][]models.Post{}
	}
	r.sent[toEmail] = posts
	return nil
}

// setupTestDB creates an in-memory SQLite database with the tables the
// reminder touches, created manually with SQLite-compatible syntax.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			bio TEXT,
			password_hash TEXT,
			avatar_url TEXT,
			rating REAL DEFAULT 5.0,
			total_posts INTEGER DEFAULT 0,
			completed_exchanges INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	require.NoError(t, db.Exec(`
		CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			images TEXT,
			lat REAL DEFAULT 0,
			lng REAL DEFAULT 0,
			postal_code TEXT,
			responses_count INTEGER DEFAULT 0,
			reports_count INTEGER DEFAULT 0,
			expires_at DATETIME NOT NULL,
			is_expired INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	return db
}

func TestReminderGroupsByOwner(t *testing.T) {
	db := setupTestDB(t)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ana := &models.User{ID: uuid.New().String(), Email: "ana@example.com", Name: "Ana"}
	bea := &models.User{ID: uuid.New().String(), Email: "bea@example.com", Name: "Bea"}
	require.NoError(t, db.Create(ana).Error)
	require.NoError(t, db.Create(bea).Error)

	makePost := func(owner string, title string, expiresIn time.Duration, expired bool) {
		require.NoError(t, db.Create(&models.Post{
			ID:          uuid.New().String(),
			UserID:      owner,
			Category:    models.CategoryOffer,
			Title:       title,
			Description: "Descripción de prueba",
			ExpiresAt:   clock.Add(expiresIn),
			IsExpired:   expired,
		}).Error)
	}

	// Ana: two inside the window, one far out
	makePost(ana.ID, "Caduca mañana", 24*time.Hour, false)
	makePost(ana.ID, "Caduca pasado", 48*time.Hour, false)
	makePost(ana.ID, "Queda un mes", 30*24*time.Hour, false)
	// Bea: one inside, one already expired (no reminder for those)
	makePost(bea.ID, "Caduca pronto", 2*24*time.Hour, false)
	makePost(bea.ID, "Ya caducado", -24*time.Hour, true)

	sender := &recordingSender{}
	reminder := NewReminder(db, sender, 3*24*time.Hour)
	reminder.now = func() time.Time { return clock }

	sent, err := reminder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, sender.sent["ana@example.com"], 2)
	assert.Len(t, sender.sent["bea@example.com"], 1)
}

func TestReminderNothingToSend(t *testing.T) {
	db := setupTestDB(t)
	sender := &recordingSender{}

	sent, err := NewReminder(db, sender, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
}
