package email

import (
	"context"
	"time"

	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sender is the part of EmailService the reminder needs.
type Sender interface {
	SendExpiryReminder(ctx context.Context, toEmail, name string, posts []models.Post) error
}

// Reminder mails each owner whose posts fall inside the extend-me window.
// It is meant to run from the daily sweep, after expired flags are fresh.
type Reminder struct {
	db     *gorm.DB
	sender Sender
	window time.Duration
	now    func() time.Time
}

// NewReminder creates a reminder over the given storage and sender.
func NewReminder(db *gorm.DB, sender Sender, window time.Duration) *Reminder {
	if window <= 0 {
		window = 3 * 24 * time.Hour
	}
	return &Reminder{db: db, sender: sender, window: window, now: time.Now}
}

// Run sends one reminder per owner covering all their expiring posts.
// Send failures are logged per owner and do not stop the rest of the batch.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	now := r.now().UTC()

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("is_expired = ? AND expires_at > ? AND expires_at <= ?",
			false, now, now.Add(r.window)).
		Find(&posts).Error
	if err != nil {
		return 0, err
	}

	byOwner := map[string][]models.Post{}
	for _, p := range posts {
		byOwner[p.UserID] = append(byOwner[p.UserID], p)
	}

	sent := 0
	for ownerID, expiring := range byOwner {
		var owner models.User
		if err := r.db.WithContext(ctx).First(&owner, "id = ?", ownerID).Error; err != nil {
			logger.Log.Warn("expiry reminder: owner lookup failed",
				logger.WithUserID(ownerID), zap.Error(err))
			continue
		}
		if err := r.sender.SendExpiryReminder(ctx, owner.Email, owner.Name, expiring); err != nil {
			logger.Log.Warn("expiry reminder: send failed",
				logger.WithUserID(ownerID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}
